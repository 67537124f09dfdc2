package cmd

import (
	"os"

	"github.com/aqlanhadi/txnrecon/extractor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts statement(s)",
	Long: `Extracts a given statement or every supported statement in a folder
and prints the reconstructed transactions as JSON or CSV.`,
	RunE: handler,
}

func handler(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	target := viper.GetString("target")
	log.Debug().Str("target", target).Msg("scanning")

	opts := extractor.OutputOptions{
		Format:          viper.GetString("output.format"),
		TransactionOnly: viper.GetBool("output.transactions_only"),
		PeriodOnly:      viper.GetBool("output.period_only"),
	}
	return extractor.ExecuteAgainstPath(ctx, buildService(ctx), target, os.Stdout, opts)
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("folder", "f", ".", "File or folder in which txnrecon will scan for statements")
	extractCmd.Flags().String("format", extractor.FormatJSON, "Output format: json or csv")
	extractCmd.Flags().Bool("transactions-only", false, "Print only the transaction list")
	extractCmd.Flags().Bool("period-only", false, "Print document metadata and period without transactions")
	viper.BindPFlag("target", extractCmd.Flags().Lookup("folder"))
	viper.BindPFlag("output.format", extractCmd.Flags().Lookup("format"))
	viper.BindPFlag("output.transactions_only", extractCmd.Flags().Lookup("transactions-only"))
	viper.BindPFlag("output.period_only", extractCmd.Flags().Lookup("period-only"))
}
