package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the service and whether AI editing is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err := checkResp("health check", h.Response, err); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"server":       c.BaseURL,
				"ai_available": h.AIAvailable(),
				"ai_service":   h.AIService,
				"model":        h.Model,
			}})
		},
	}
}
