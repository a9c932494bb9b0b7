package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptsgo/promptsgo/internal/domain"
	"github.com/promptsgo/promptsgo/internal/domain/template"
)

type renderFlags struct {
	vars   []string
	strict bool
}

// renderOutput is the JSON form of a render.
type renderOutput struct {
	Text      string              `json:"text"`
	Missing   []string            `json:"missing"`
	Variables []template.Variable `json:"variables"`
}

func (a *app) newRenderCmd() *cobra.Command {
	f := &renderFlags{}
	c := &cobra.Command{
		Use:   "render <file|->",
		Short: "Fill the {{placeholders}} of a prompt template",
		Long: `Fill the {{name}} and {{name:default}} placeholders of a template file, or stdin with "-".

Unfilled placeholders stay in the text and are listed on stderr; --strict turns them into an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], f)
		},
	}
	c.Flags().StringArrayVar(&f.vars, "var", nil, "Variable value as name=value (repeatable)")
	c.Flags().BoolVar(&f.strict, "strict", false, "Fail when a variable has no value")
	return c
}

func (a *app) runRender(cmd *cobra.Command, path string, f *renderFlags) error {
	values, err := parseVars(f.vars)
	if err != nil {
		return err
	}

	var content []byte
	if path == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	text, missing := template.Render(string(content), values)
	if f.strict && len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingVariables, strings.Join(missing, ", "))
	}

	if a.json() {
		if missing == nil {
			missing = []string{}
		}
		return printJSON(cmd.OutOrStdout(), renderOutput{
			Text:      text,
			Missing:   missing,
			Variables: template.Variables(string(content)),
		})
	}

	if len(missing) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "missing variables: %s\n", strings.Join(missing, ", "))
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

func parseVars(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", kv)
		}
		values[name] = value
	}
	return values, nil
}
