package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/config"
	"github.com/antoniostano/rin/internal/logging"
)

var (
	// Global flags
	logLevel   string
	logJSON    bool
	memoryPath string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rin",
	Short: "Rin - a bossy little assistant that routes commands and chats",
	Long: `Rin listens to short utterances, runs the matching command (math, media,
music, search, agenda, weather, translation) and falls back to a generative
model for everything else. Conversation memory persists across runs.

Run without arguments to start an interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-json") {
			loaded.LogJSON = logJSON
		}
		if memoryPath != "" {
			loaded.MemoryPath = memoryPath
		}
		cfg = loaded

		logger, err = logging.New(cfg.LogLevel, cfg.LogJSON)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs")
	rootCmd.PersistentFlags().StringVar(&memoryPath, "memory", "", "Conversation memory file (overrides RIN_MEMORY_PATH)")

	serveCmd.Flags().StringVar(&bindAddr, "addr", "", "Listen address (overrides APP_BIND_ADDR)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last n turns")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(ownerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
