package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"feedwatch/internal/repository"
)

func newWatermarkCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Inspect or reset stored watermarks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every stored watermark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store repository.WatermarkRepository) error {
				wms, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				return writeWatermarks(cmd.OutOrStdout(), opts.Format, wms...)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <feed-url>",
		Short: "Show the watermark of one feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store repository.WatermarkRepository) error {
				wm, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if wm == nil {
					return fmt.Errorf("no watermark for %s", args[0])
				}
				return writeWatermarks(cmd.OutOrStdout(), opts.Format, wm)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <feed-url>",
		Short: "Delete a feed's watermark; its next run notifies every entry again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store repository.WatermarkRepository) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "watermark reset: %s\n", args[0])
				return err
			})
		},
	})

	return cmd
}

func withStore(cmd *cobra.Command, opts *rootOptions, fn func(repository.WatermarkRepository) error) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.openStore(cmd.Context()); err != nil {
		return err
	}
	return fn(a.store)
}
