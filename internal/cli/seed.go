package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptsgo/promptsgo/internal/config"
	"github.com/promptsgo/promptsgo/internal/repository/catalog"
	promptrepo "github.com/promptsgo/promptsgo/internal/repository/prompt"
	promptuc "github.com/promptsgo/promptsgo/internal/usecase/prompt"
)

type seedFlags struct {
	configPath string
	replace    bool
}

func (a *app) newSeedCmd() *cobra.Command {
	f := &seedFlags{}
	c := &cobra.Command{
		Use:   "seed <catalog>",
		Short: "Import a catalog file into the database",
		Long: `Import the prompts of a YAML, JSON or Parquet catalog file into the configured database.

Prompts keep their ids, slugs and counters. Existing ids are skipped unless --replace is set.
The database comes from --config, or config/<ENV>.yaml when unset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSeed(cmd, args[0], f)
		},
	}
	c.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file")
	c.Flags().BoolVar(&f.replace, "replace", false, "Overwrite prompts that already exist")
	return c
}

func (a *app) runSeed(cmd *cobra.Command, path string, f *seedFlags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}
	records, err := cat.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	store, err := a.openStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	if err := store.WaitForReady(cmd.Context(), time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	svc := promptuc.New(promptrepo.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix), nil)
	res, err := svc.Import(cmd.Context(), records, f.replace)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	if a.json() {
		return printJSON(cmd.OutOrStdout(), map[string]int{
			"created": res.Created,
			"updated": res.Updated,
			"skipped": res.Skipped,
		})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d created, %d updated, %d skipped\n",
		path, res.Created, res.Updated, res.Skipped)
	return err
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(config.GetEnv())
}
