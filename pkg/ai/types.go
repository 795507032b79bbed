package ai

import "context"

// Generator sends a single prompt to a generative text model and returns its raw reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
