package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnemet/LessonForge/internal/config"
	"github.com/gnemet/LessonForge/internal/logger"
)

var (
	configPath string
	logMode    string
	quiet      bool
	jsonOutput bool

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lessonforge",
	Short: "Build lesson slide decks from PowerPoint templates",
	Long: `lessonforge fills .pptx templates with lesson content.

Commands:
  inspect       List the layouts and placeholders of a template
  build         Build a deck from a JSON slide list
  generate      Draft a lesson with the configured AI provider and build it
  new-template  Write a minimal lesson template
  dump          Print the text of every slide of a deck
  preview       Render slide PNGs with LibreOffice`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadConfigFrom(configPath)
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if quiet {
			log = logger.NewNop()
			return nil
		}
		mode := cfg.Logging.Mode
		if logMode != "" {
			mode = logMode
		}
		log, err = logger.New(mode)
		if err != nil {
			return err
		}
		if configPath == "" && cfg.EnvFile == "" {
			log.Debug("No .env file, using system environment variables")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default config.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "",
		"Log mode: development, production")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"Disable logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print machine readable JSON")

	rootCmd.AddCommand(inspectCmd, buildCmd, generateCmd, newTemplateCmd, dumpCmd, previewCmd)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
