// Package offline is the completion provider of last resort. It echoes a
// canned acknowledgement so the full query path stays exercisable in
// environments without any model credentials.
package offline

import (
	"context"
	"fmt"

	"github.com/adipk/ragdocs/pkg/logx"
)

type Completer struct{}

func New() *Completer {
	logx.New("llm_offline").Warn("No completion provider configured - answers will be placeholders")
	return &Completer{}
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("This is a placeholder answer generated without a language model. Prompt length: %d characters.", len(prompt)), nil
}
