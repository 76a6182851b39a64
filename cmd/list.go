package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/kiosk/internal/adapters/console"
	"github.com/okian/kiosk/internal/adapters/repository"
	"github.com/okian/kiosk/internal/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled people",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runList(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context, c *config.Config, out io.Writer) error {
	store := repository.NewJSONStore(c.IdentityPath,
		repository.WithImageDir(c.ImageDir),
		repository.WithImageExt(c.ImageExt),
	)
	if err := store.LoadAll(ctx); err != nil {
		return err
	}
	return console.WriteIdentities(out, store.List(ctx))
}
