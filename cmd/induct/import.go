package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/importer"
)

func newImportCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Preview and import a CSV or Excel sheet",
		Long:  "Reads a .csv, .xlsx or .xls file, prints the first rows and imports the rest as the web upload does.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, configPath, args[0], dryRun)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview only")
	return cmd
}

func runImport(cmd *cobra.Command, configPath, path string, dryRun bool) error {
	out := cmd.OutOrStdout()
	name := filepath.Base(path)
	if !importer.SupportedFile(name) {
		return importer.ErrInvalidFileFormat
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet, err := importer.ParseFile(name, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", name, sheet.Len(), len(sheet.Columns))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(sheet.Columns, "\t"))
	for _, row := range sheet.Preview() {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()

	if dryRun {
		return nil
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	batch := uuid.NewString()
	if err := importer.Stage(gormDB, batch, name, sheet); err != nil {
		return err
	}
	n, err := importer.Commit(gormDB, batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSuccessfully imported %d records\n", n)
	return nil
}
