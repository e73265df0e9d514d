package main

import (
	"fmt"

	"hybridsearch/internal/repository"
	"hybridsearch/internal/service"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed a property fixture into the local chromem index",
	Long: `Embeds every property of a JSON fixture with the configured embedding
model and writes the chromem index to VECTOR_PERSIST_PATH.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("fixture", "", "property fixture (defaults to STORE_FIXTURE)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	cfg := engine.Config
	if engine.OpenAI == nil {
		return fmt.Errorf("indexing needs an embedding model: set OPENAI_API_KEY")
	}
	if cfg.Vector.Backend != "chromem" {
		return fmt.Errorf("indexing writes the chromem backend only, VECTOR_BACKEND is %q", cfg.Vector.Backend)
	}

	fixture, _ := cmd.Flags().GetString("fixture")
	if fixture == "" {
		fixture = cfg.Neo4j.Fixture
	}
	if fixture == "" {
		return fmt.Errorf("no fixture: pass --fixture or set STORE_FIXTURE")
	}
	store, err := repository.LoadMemoryStore(fixture)
	if err != nil {
		return err
	}

	index, err := repository.NewChromemIndex(cfg.Vector.Collection)
	if err != nil {
		return err
	}

	properties := store.All()
	bar := progressbar.NewOptions(len(properties),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Embedding properties"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	indexer := service.NewIndexer(engine.OpenAI, index, engine.Logger).OnProgress(func(done, total int) {
		_ = bar.Set(done)
	})
	success, errs := indexer.Index(ctx, properties)
	_ = bar.Finish()

	for _, e := range errs {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
	if success == 0 {
		return fmt.Errorf("nothing was indexed")
	}

	if err := index.Save(cfg.Vector.PersistPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d properties into %s (%d failed)\n", success, cfg.Vector.PersistPath, len(errs))
	return nil
}
