package cmd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aqlanhadi/txnrecon/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Starts the HTTP API server that accepts statement uploads and returns extracted data as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		server := api.New(serverConfig(), buildService(ctx), log)
		if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			return err
		}
		return nil
	},
}

func serverConfig() api.Config {
	cfg := api.DefaultConfig()
	if port := viper.GetString("server.port"); port != "" {
		cfg.Port = ":" + strings.TrimPrefix(port, ":")
	}
	if v := viper.GetInt64("server.max_upload_mb"); v > 0 {
		cfg.MaxUploadMB = v
	}
	if viper.IsSet("server.rate_limit_per_second") {
		cfg.RateLimitPerSecond = viper.GetFloat64("server.rate_limit_per_second")
	}
	if v := viper.GetInt("server.rate_limit_burst"); v > 0 {
		cfg.RateLimitBurst = v
	}
	if origins := viper.GetStringSlice("server.allowed_origins"); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	return cfg
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to run the API server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
