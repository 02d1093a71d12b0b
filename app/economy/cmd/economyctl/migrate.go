package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/lk2023060901/pocketzot/app/economy/internal/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				m, err := migrations.NewMigrator(e.db, e.logger)
				if err != nil {
					return err
				}
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
					return nil
				}
				for _, name := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				m, err := migrations.NewMigrator(e.db, e.logger)
				if err != nil {
					return err
				}
				name, err := m.Down(ctx)
				if err != nil {
					return err
				}
				if name == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				m, err := migrations.NewMigrator(e.db, e.logger)
				if err != nil {
					return err
				}
				status, err := m.Status(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tAPPLIED")
				for _, s := range status {
					fmt.Fprintf(w, "%s\t%t\n", s.Name, s.Applied)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}
