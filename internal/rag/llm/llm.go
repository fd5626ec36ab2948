package llm

import "context"

// Completer turns an assembled grounded prompt into an answer string.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
