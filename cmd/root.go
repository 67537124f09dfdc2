package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aqlanhadi/txnrecon/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration, used when no .txnrecon.yaml is found.
const defaultConfigYAML = `
extraction:
  amount_ceiling: 1000000
  text_transaction_limit: 100
  description_limit: 100
  dedup_prefix: 30
  raw_text_limit: 10000
  strict_text_descriptions: false
pdf:
  cell_gap: 15
ocr:
  enabled: true
  dpi: 300
  language: eng
ai:
  enabled: true
  model: gemini-2.5-flash
  api_key: ""
  max_input_chars: 8000
  timeout: 60s
server:
  port: "8080"
  max_upload_mb: 32
  rate_limit_per_second: 5
  rate_limit_burst: 10
  allowed_origins: ["*"]
database:
  url: ""
categories:
  - name: Food
    keywords: [food, restaurant, cafe, pizza, kfc, mcdonald, eat]
  - name: Shopping
    keywords: [amazon, shop, store, mall, daraz, purchase]
  - name: Transport
    keywords: [uber, careem, fuel, petrol, bus, metro, transport]
  - name: Utilities
    keywords: [electric, gas, water, internet, ptcl, jazz, zong, bill]
  - name: Transfer
    keywords: [transfer, sent to, received from]
`

var (
	cfgFile string
	verbose bool
	log     = zerolog.Nop()
	rootCmd = &cobra.Command{
		Use:   "txnrecon [filename]",
		Short: "Reconstruct transactions from bank statements",
		Long: `txnrecon extracts structured transactions out of bank statements
(PDF, CSV, XLSX and scanned images) and normalizes them into one record shape.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("target", args[0])
				return handler(extractCmd, []string{})
			}
			return cmd.Help()
		},
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.txnrecon.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	log = logger.New(verbose)
}

func initConfig() {
	// a missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".txnrecon")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TXNRECON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := loadDefaultConfig(); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadDefaultConfig() error {
	viper.SetConfigType("yaml")
	return viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML))
}

// commandContext carries the logger and is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx := logger.WithContext(context.Background(), log)
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
