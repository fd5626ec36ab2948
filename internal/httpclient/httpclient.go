// Package httpclient provides the shared pooled HTTP client handed to
// external SDKs, so repeated embedding calls reuse connections instead
// of paying a handshake per batch.
package httpclient

import (
	"net/http"

	"github.com/adipk/ragdocs/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

func Pooled() *http.Client {
	return &http.Client{Transport: pooledTransport}
}
