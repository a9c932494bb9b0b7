package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptsgo/promptsgo/internal/repository/catalog"
)

func (a *app) newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a catalog between YAML, JSON and Parquet",
		Long: `Read a catalog and write it in the format given by the output extension
(.json, .parquet, anything else is YAML). Missing slugs are derived on the way.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args[0], args[1])
		},
	}
}

func (a *app) runConvert(cmd *cobra.Command, in, out string) error {
	cat, err := catalog.Load(in)
	if err != nil {
		return err
	}
	records, err := cat.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	if err := catalog.Save(out, records); err != nil {
		return fmt.Errorf("convert %s: %w", in, err)
	}

	if a.json() {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"prompts": len(records),
			"format":  catalog.FormatOf(out),
			"path":    out,
		})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d prompts to %s (%s)\n", len(records), out, catalog.FormatOf(out))
	return err
}
