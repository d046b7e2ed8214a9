package generate

import (
	"context"
	"fmt"
)

// Static is a Generator that never calls out. With Text set it returns Text
// for every prompt; otherwise it echoes the prompt with the temperature.
type Static struct {
	Text string
}

// Generate returns the canned response. It only fails if ctx is done.
func (s Static) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Text != "" {
		return s.Text, nil
	}
	return fmt.Sprintf("[t=%.2f] %s", temperature, prompt), nil
}
