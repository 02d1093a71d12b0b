package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newInventoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage user inventories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <uid>",
		Short: "Delete every accessory owned by a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || uid <= 0 {
				return errors.Newf("invalid uid %q", args[0])
			}
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				n, err := e.shop.ClearInventory(ctx, uid)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d ownerships of user %d\n", n, uid)
				return nil
			})
		},
	})
	return cmd
}
