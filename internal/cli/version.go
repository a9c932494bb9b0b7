package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptsgo/promptsgo/internal/version"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.json() {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version.Version,
					"commit":  version.Commit,
					"date":    version.Date,
				})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "promptsctl", version.String())
			return err
		},
	}
}
