// Package cli provides the command-line interface for datasift.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"datasift/app"
	"datasift/app/logging"
	"datasift/app/settings"
)

// Version is set at build time
var Version = "0.1.0"

// appKey is used to store the App in the command context.
type appKey struct{}

type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "datasift",
		Short: "datasift - tabular file loader and cleaner",
		Long: `datasift loads delimited text, spreadsheets and JSON record files,
detecting the format from content rather than the file name.

It can clean a table (drop duplicate rows, normalize column names, infer
column types and fill missing values), compute correlation matrices and
remove columns that are redundant with an earlier one.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip settings for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			s, err := settings.Load(flags.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				s.LogLevel = flags.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				s.LogFormat = flags.logFormat
			}
			logger := logging.Setup(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)

			a, err := app.NewApp(s, logger)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "settings file (default: "+settings.FileName+" next to the executable)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newPreviewCommand())
	rootCmd.AddCommand(newCleanCommand())
	rootCmd.AddCommand(newCorrCommand())
	rootCmd.AddCommand(newPruneCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newChunksCommand())
	rootCmd.AddCommand(newConfigCommand(flags))

	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getApp retrieves the App from the command context.
func getApp(ctx context.Context) (*app.App, error) {
	if a, ok := ctx.Value(appKey{}).(*app.App); ok {
		return a, nil
	}
	return nil, fmt.Errorf("datasift is not initialized")
}
