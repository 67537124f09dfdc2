package cmd

import (
	"context"
	"os"

	"github.com/aqlanhadi/txnrecon/extractor"
	"github.com/aqlanhadi/txnrecon/extractor/ai"
	"github.com/aqlanhadi/txnrecon/extractor/category"
	"github.com/aqlanhadi/txnrecon/extractor/period"
	"github.com/aqlanhadi/txnrecon/extractor/source"
	"github.com/aqlanhadi/txnrecon/logger"
	"github.com/spf13/viper"
)

func categoryRules() []category.Rule {
	var rules []category.Rule
	if err := viper.UnmarshalKey("categories", &rules); err != nil || len(rules) == 0 {
		return category.DefaultRules
	}
	return rules
}

// buildRegistry detects optional capabilities once. Loaders and strategies
// are registered in the order they should be tried.
func buildRegistry(ctx context.Context) *extractor.Registry {
	log := logger.FromContext(ctx)

	reg := extractor.NewRegistry().
		RegisterLoader(source.NewPDFLoader(viper.GetFloat64("pdf.cell_gap"))).
		RegisterLoader(source.NewCSVLoader()).
		RegisterLoader(source.NewXLSXLoader())

	if viper.GetBool("ocr.enabled") && source.OCRAvailable() {
		ocr := source.NewOCRLoader(viper.GetInt("ocr.dpi"), viper.GetString("ocr.language"))
		ocr.Progress = func(page, total int) {
			log.Debug().Int("page", page).Int("total", total).Msg("ocr progress")
		}
		reg.RegisterLoader(ocr)
	} else {
		log.Debug().Msg("ocr unavailable, scanned documents will not be read")
	}

	if key := aiKey(); viper.GetBool("ai.enabled") && key != "" {
		completer, err := ai.NewGeminiCompleter(ctx, key, viper.GetString("ai.model"))
		if err != nil {
			log.Warn().Err(err).Msg("gemini disabled")
		} else {
			reg.RegisterStrategy(ai.NewStrategy(completer, viper.GetInt("ai.max_input_chars"), viper.GetDuration("ai.timeout")))
		}
	}
	reg.RegisterStrategy(extractor.NewRegexStrategy(extractor.TextOptionsFromViper()))

	log.Debug().
		Strs("loaders", reg.LoaderNames()).
		Strs("strategies", reg.StrategyNames()).
		Msg("capabilities registered")
	return reg
}

func aiKey() string {
	if key := viper.GetString("ai.api_key"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

func buildService(ctx context.Context) *extractor.Service {
	reg := buildRegistry(ctx)
	pipeline := extractor.NewPipeline(
		extractor.OptionsFromViper(),
		category.New(categoryRules()),
		period.NewDetector(),
		reg.Strategies()...,
	)
	return extractor.NewService(reg, pipeline, viper.GetInt("extraction.raw_text_limit"))
}
