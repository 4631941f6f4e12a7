// Package main provides the agentchat CLI application entry point.
// agentchat is a terminal client for an agent chat backend: it manages chat
// sessions and streams assistant responses over server-sent events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agentchat/internal/api"
	"agentchat/internal/auth"
	"agentchat/internal/config"
	"agentchat/internal/logger"
	"agentchat/internal/store"
)

var (
	logLevel string
	logFile  string
	version  = "0.1.0" // This could be set at build time
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentchat",
	Short: "agentchat - terminal client for agent chat sessions",
	Long: `agentchat is a terminal client for an agent chat backend.
It manages chat sessions and streams assistant responses as they are generated.`,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version of agentchat.`,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("agentchat v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")

	// Bind flags to viper
	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}

	// Add subcommands
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// Configure logger with CLI flags
	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// newStore builds the full client stack from resolved configuration.
func newStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags already configured the logger; config file values only apply when
	// the flags were left empty.
	if logLevel == "" && cfg.LogLevel != "" {
		if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
			return nil, fmt.Errorf("failed to configure logger: %w", err)
		}
	}

	creds := auth.NewFileCredentials(cfg.CredentialsFile)
	client := api.NewClient(cfg.ServerURL, creds, cfg.RequestTimeout)

	storeLog := logger.NewStyledLogger("Store")
	storeLog.Debug("Client stack initialized", "server_url", cfg.ServerURL, "page_size", cfg.PageSize)
	return store.New(client, cfg.PageSize), nil
}
