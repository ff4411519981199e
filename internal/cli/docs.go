package cli

import (
	"fmt"
	"io"

	"todolists/internal/docs"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show operator documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `todolists docs` to list topics)", topic))
			}
			if raw {
				_, err := io.WriteString(cmd.OutOrStdout(), body)
				return err
			}
			out, err := renderTerminalMarkdown(body, 80)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print Markdown source instead of rendering it")
	return cmd
}
