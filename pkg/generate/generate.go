// Package generate defines the text generation collaborator used to answer
// prompts, together with its implementations.
//
// A [Generator] turns one prompt into one response at a given sampling
// temperature. Callers fan out several calls per prompt with the
// temperatures returned by [Temperatures] so the responses differ.
//
// Implementations:
//   - [OpenAI] talks to any OpenAI compatible chat completions endpoint.
//   - [Static] returns canned text and never fails; it backs offline use
//     and tests.
package generate

import "context"

// Temperature spacing for a batch of responses.
const (
	BaseTemperature  = 0.7
	TemperatureRange = 0.3
)

// Generator produces a response for a prompt.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	return f(ctx, prompt, temperature)
}

// Temperatures returns n temperatures spaced linearly over [0.7, 1.0):
// temperature i is 0.7 + i*0.3/n. Returns nil for n <= 0.
func Temperatures(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = BaseTemperature + float64(i)*TemperatureRange/float64(n)
	}
	return out
}
