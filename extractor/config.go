package extractor

import (
	"github.com/aqlanhadi/txnrecon/extractor/text"
	"github.com/spf13/viper"
)

// OptionsFromViper reads the extraction.* keys, keeping defaults for
// anything unset.
func OptionsFromViper() Options {
	opts := DefaultOptions()
	if viper.IsSet("extraction.amount_ceiling") {
		opts.AmountCeiling = viper.GetFloat64("extraction.amount_ceiling")
	}
	if v := viper.GetInt("extraction.description_limit"); v > 0 {
		opts.DescriptionLimit = v
	}
	if v := viper.GetInt("extraction.dedup_prefix"); v > 0 {
		opts.DedupPrefix = v
	}
	return opts
}

func TextOptionsFromViper() text.Options {
	return text.Options{
		Limit:  viper.GetInt("extraction.text_transaction_limit"),
		Strict: viper.GetBool("extraction.strict_text_descriptions"),
	}
}
