package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clickoflow/clickoflow/internal/config"
	"github.com/clickoflow/clickoflow/internal/importer"
)

var flagImportDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import settings, projects and plans from a YAML ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Validate the file without writing")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	n, err := config.Normalizer(cfg)
	if err != nil {
		return err
	}

	l, err := importer.ReadFile(args[0], n)
	if err != nil {
		return err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Parsed %s: %d projects, %d plans (owner %s)\n",
			args[0], len(l.Projects), len(l.Plans), l.Owner)
	}
	if flagImportDryRun {
		fmt.Println("  Dry run: nothing written.")
		return nil
	}

	ctx := context.Background()
	repo, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	res, err := importer.Apply(ctx, repo, l)
	if err != nil {
		return fmt.Errorf("import stopped after %d projects, %d plans: %w", res.Projects, res.Plans, err)
	}

	settings := "unchanged"
	if res.Settings {
		settings = "saved"
	}
	fmt.Printf("  Imported %d projects and %d plans for %s (settings %s)\n",
		res.Projects, res.Plans, l.Owner, settings)
	if config.GetOwner(cfg) == "" {
		fmt.Printf("  Tip: set owner = %q under [general] in %s\n", l.Owner, config.ConfigPath())
	}
	return nil
}
