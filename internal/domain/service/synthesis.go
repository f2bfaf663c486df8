package service

import "context"

// TextSynthesizer produces structured prose from a prompt. Implementations
// wrap an LLM provider; failures are expected and mean "no synthesis this
// cycle", never a fatal condition for callers.
type TextSynthesizer interface {
	Synthesize(ctx context.Context, system, prompt string) (string, error)
}
