package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the initial accessory catalog, resetting seeded prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				list, err := e.shop.SeedCatalog(ctx)
				if err != nil {
					return err
				}
				for _, a := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", a.ID, a.Name, a.Price)
				}
				return nil
			})
		},
	}
}

func newPriceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Manage accessory prices",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <id|name> <price>",
		Short: "Set the price of an accessory",
		Example: `  economyctl price set Crown 30
  economyctl price set 3 12`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parsePrice(args[1])
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				a, err := e.shop.RevisePrice(ctx, args[0], price)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now costs %d ants\n", a.Name, a.Price)
				return nil
			})
		},
	})
	return cmd
}

func parsePrice(s string) (int64, error) {
	price, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Newf("invalid price %q: must be an integer", s)
	}
	if price < 0 {
		return 0, errors.Newf("invalid price %d: must be non-negative", price)
	}
	return price, nil
}
