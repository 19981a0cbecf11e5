package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"study-backend/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return migrateUp(cfg, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		mg, err := store.NewMigrator(cfg.DatabaseURL(), log)
		if err != nil {
			return err
		}
		defer mg.Close()
		return mg.Down()
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		mg, err := store.NewMigrator(cfg.DatabaseURL(), log)
		if err != nil {
			return err
		}
		defer mg.Close()

		v, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if dirty {
			fmt.Fprintf(out, "%d (dirty)\n", v)
			return nil
		}
		fmt.Fprintln(out, v)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
