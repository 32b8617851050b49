package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"outpost/internal/config"
	"outpost/internal/logging"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "outpost",
		Short: "Outpost - MCP gateway with a durable tool-call audit log",
		Long: `Outpost proxies MCP tool calls to configured servers, records every
call and result in a relational audit log, and serves the log through a
team-scoped REST API and a web logs view.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and MCP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	bootstrapCmd = &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the initial admin user and print its API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	serveCmd.Flags().Bool("local", false, "run without authentication, as the local admin user")
	_ = viper.BindPFlag("local_mode", serveCmd.Flags().Lookup("local"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func initLogging() {
	logging.Initialize(viper.GetBool("debug"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
