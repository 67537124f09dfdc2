package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aqlanhadi/txnrecon/extractor"
	"github.com/aqlanhadi/txnrecon/logger"
)

// Processor extracts a document from file contents.
type Processor interface {
	ProcessBytes(ctx context.Context, data []byte, filename string) (*extractor.Document, error)
	Supports(filename string) bool
}

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

func (r *ImportResult) add(processed, skipped, failed int, errs []string) {
	r.Processed += processed
	r.Skipped += skipped
	r.Failed += failed
	r.Errors = append(r.Errors, errs...)
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Force   bool // re-import files whose content is already stored
	Verbose bool
}

// ImportFile extracts one file and stores it. Files already imported,
// matched by content hash, are skipped unless Force is set.
func (db *DB) ImportFile(ctx context.Context, p Processor, filePath string, opts ImportOptions) (processed int, skipped int, failed int, errors []string) {
	log := logger.FromContext(ctx)
	fileName := filepath.Base(filePath)
	fail := func(format string, args ...interface{}) (int, int, int, []string) {
		msg := fileName + ": " + fmt.Sprintf(format, args...)
		if opts.Verbose {
			log.Warn().Msg("FAIL " + msg)
		}
		return 0, 0, 1, []string{msg}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fail("failed to read file: %v", err)
	}

	exists, existingID, err := db.DocumentExists(ctx, extractor.ContentHash(data))
	if err != nil {
		return fail("check error: %v", err)
	}
	if exists && !opts.Force {
		if opts.Verbose {
			log.Info().Msgf("SKIP %s (already imported)", fileName)
		}
		return 0, 1, 0, nil
	}

	doc, err := p.ProcessBytes(ctx, data, fileName)
	if err != nil {
		return fail("extraction error: %v", err)
	}
	if len(doc.Transactions) == 0 {
		return fail("no transactions extracted")
	}

	if err := db.ReplaceDocument(ctx, existingID, doc); err != nil {
		return fail("save error: %v", err)
	}

	if opts.Verbose {
		log.Info().Msgf("OK   %s [%s] (%d transactions)", fileName, doc.BankName, len(doc.Transactions))
	}
	return 1, 0, 0, nil
}

// ImportDirectory processes every supported file in a directory
func (db *DB) ImportDirectory(ctx context.Context, p Processor, dirPath string, opts ImportOptions) (*ImportResult, error) {
	log := logger.FromContext(ctx)
	result := &ImportResult{}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var dataFiles []string
	for _, e := range entries {
		if e.IsDir() || !p.Supports(e.Name()) {
			continue
		}
		dataFiles = append(dataFiles, filepath.Join(dirPath, e.Name()))
	}
	sort.Strings(dataFiles)

	log.Info().Str("path", dirPath).Int("files", len(dataFiles)).Msg("scanning directory")

	for _, filePath := range dataFiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.add(db.ImportFile(ctx, p, filePath, opts))
	}

	return result, nil
}

// Import handles both file and directory imports
func (db *DB) Import(ctx context.Context, p Processor, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, p, path, opts)
	}

	result := &ImportResult{}
	result.add(db.ImportFile(ctx, p, path, opts))
	return result, nil
}
