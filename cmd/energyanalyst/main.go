// Energy Analyst: question answering over quarterly results of the oil & gas majors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"EnergyAnalyst/internal/app"
	"EnergyAnalyst/internal/config"
	"EnergyAnalyst/internal/logging"
)

var cfg config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "energyanalyst",
	Short: "Oil & gas financial analysis chatbot",
	Long: `Energy Analyst answers natural-language questions about the quarterly
financial performance of Shell, BP, ExxonMobil and Chevron. Answers come from
a generative backend when one is configured, and from the built-in analysis
engine otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win.
		_ = godotenv.Load()

		configFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.Logging.Level = level
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fullUpdate, _ := cmd.Flags().GetBool("full-update")
		query, _ := cmd.Flags().GetString("query")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Prepare(ctx, fullUpdate); err != nil {
			return err
		}

		if query != "" {
			fmt.Fprintln(cmd.OutOrStdout(), application.Ask(ctx, query))
			return nil
		}
		return application.RunInteractive(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh company data on the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Watch(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: $ENERGY_ANALYST_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.Flags().Bool("full-update", false, "reload data for every company before serving")
	rootCmd.Flags().StringP("query", "q", "", "answer a single question and exit")

	rootCmd.AddCommand(watchCmd)
}

func newApplication(ctx context.Context) (*app.Application, error) {
	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return nil, err
	}
	return application, nil
}
