package embedding

import "context"

// Embedder converts text to a fixed-dimension vector. Implementations
// are chosen once at startup and injected; nothing probes capabilities
// per call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimension() int
}
