package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"feedwatch/internal/observability/logging"
)

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "feedwatch",
		Short: "Watch feeds and notify new entries",
		Long: `feedwatch fetches each configured feed, finds the entries published since
the feed's watermark, sends them to the enabled channels and advances the
watermark once the notification was accepted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					slog.SetDefault(logging.NewJSONLogger(os.Stderr, logging.ParseLevel(os.Getenv("LOG_LEVEL"))))
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to the YAML configuration (default $FEEDWATCH_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newWatermarkCommand(opts))
	cmd.AddCommand(newDiagnoseCommand(opts))

	cmd.SetOut(os.Stdout)
	return cmd
}
