package llm

import (
	"context"
	_ "embed"
)

//go:embed primer.md
var primerPrompt string

// Warmup sends the embedded intent primer once so the remote endpoint
// has the task framing loaded before the first real message. Failures
// are logged only; the chat works without the primer.
func (c *Client) Warmup(ctx context.Context) {
	if _, err := c.Complete(ctx, primerPrompt); err != nil {
		c.logger.Warn("warmup prompt failed", "error", err)
		return
	}
	c.logger.Debug("warmup prompt sent")
}
