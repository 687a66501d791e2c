package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/induction/internal/config"
	"github.com/zulandar/induction/internal/db"
	"golang.org/x/term"
	"gorm.io/gorm"
)

// stdinIsTerminal reports whether a human can answer prompts. Tests override it.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Record store management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	cmd.AddCommand(newDBSeedCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Induction database",
		Long:  "Creates the database (MySQL only), migrates all tables and seeds the trains listed in config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s config from %s\n", cfg.Database.Driver, configPath)
			if err := ensureDatabase(cmd, cfg, false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nInduction database initialized successfully.")
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the Induction database",
		Long: `Drops every Induction table (or the whole database on MySQL), then
migrates and seeds from config again. Asks for confirmation unless --yes is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !skipConfirm {
		if !stdinIsTerminal() {
			return fmt.Errorf("refusing to reset %s without --yes on a non-interactive terminal", cfg.Database.Name)
		}
		if !confirmReset(cmd, cfg.Database.Name) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := ensureDatabase(cmd, cfg, true); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nInduction database reset and re-initialized successfully.")
	return nil
}

// ensureDatabase creates (or, with drop, recreates) the database and its
// tables, then seeds trains from config.
func ensureDatabase(cmd *cobra.Command, cfg *config.Config, drop bool) error {
	out := cmd.OutOrStdout()

	if cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
		}
		if drop {
			if err := db.DropDatabase(adminDB, cfg.Database.Name); err != nil {
				return err
			}
			fmt.Fprintf(out, "Dropped database %s\n", cfg.Database.Name)
		}
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}

	if drop && cfg.Database.Driver != "mysql" {
		if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		fmt.Fprintln(out, "Dropped all tables")
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	return seedTrains(out, gormDB, cfg)
}

func seedTrains(out io.Writer, gormDB *gorm.DB, cfg *config.Config) error {
	if err := db.SeedTrains(gormDB, cfg.Trains); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d trains:", len(cfg.Trains))
	for _, t := range cfg.Trains {
		fmt.Fprintf(out, " %s", t.TrainNumber)
	}
	fmt.Fprintln(out)
	return nil
}

func newDBSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the trains listed in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return seedTrains(cmd.OutOrStdout(), gormDB, cfg)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func confirmReset(cmd *cobra.Command, dbName string) bool {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in database %q.\n", dbName)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
