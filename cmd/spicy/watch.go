// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/spicy/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-run the check whenever a document changes",
	Long: `Watch runs check once, then watches the documentation directory and
runs it again after every burst of changes to a matching document. Only
documents whose content changed are extracted again. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args)
		if err != nil {
			return err
		}

		w, err := watch.New(watch.Config{
			Root:      ws.root,
			Prefix:    ws.cfg.Prefix,
			Include:   ws.cfg.Include,
			Exclude:   ws.cfg.Exclude,
			Ignored:   ignoredLinks(ws.cfg),
			Debounce:  ws.cfg.Watch.Debounce,
			CacheSize: ws.cfg.Watch.CacheSize,
		}, slog.Default(), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
