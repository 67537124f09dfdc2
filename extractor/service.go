package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/logger"
	"github.com/google/uuid"
)

const DefaultRawTextLimit = 10000

// Document is the full extraction result for one uploaded file.
type Document struct {
	ID             string                 `json:"id"`
	Filename       string                 `json:"filename"`
	Format         string                 `json:"format"`
	PageCount      int                    `json:"page_count"`
	BankName       string                 `json:"bank_name"`
	Strategy       string                 `json:"strategy,omitempty"`
	RawText        string                 `json:"raw_text,omitempty"`
	ContentHash    string                 `json:"-"`
	Transactions   []common.Transaction   `json:"transactions"`
	DetectedPeriod *common.DetectedPeriod `json:"detected_period"`
}

// TextDocument is the result of a text-only extraction.
type TextDocument struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	PageCount int    `json:"page_count"`
	Text      string `json:"text"`
}

// Service wires loading and extraction together. It is safe for
// concurrent use.
type Service struct {
	registry     *Registry
	pipeline     *Pipeline
	rawTextLimit int
}

func NewService(registry *Registry, pipeline *Pipeline, rawTextLimit int) *Service {
	if rawTextLimit <= 0 {
		rawTextLimit = DefaultRawTextLimit
	}
	return &Service{registry: registry, pipeline: pipeline, rawTextLimit: rawTextLimit}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// Supports reports whether filename has a registered loader.
func (s *Service) Supports(filename string) bool {
	return s.registry.Supports(filename)
}

// ProcessReader loads the file, runs the pipeline and returns the document.
func (s *Service) ProcessReader(ctx context.Context, r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return s.ProcessBytes(ctx, data, filename)
}

func (s *Service) ProcessBytes(ctx context.Context, data []byte, filename string) (*Document, error) {
	log := logger.FromContext(ctx)

	src, err := s.registry.Load(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	analysis, err := s.pipeline.Analyze(ctx, src.Rows, src.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	doc := &Document{
		ID:             uuid.NewString(),
		Filename:       filename,
		Format:         src.Format,
		PageCount:      src.PageCount,
		BankName:       DetectBank(src.Text),
		Strategy:       analysis.Strategy,
		RawText:        common.Truncate(src.Text, s.rawTextLimit),
		ContentHash:    ContentHash(data),
		Transactions:   analysis.Transactions,
		DetectedPeriod: analysis.DetectedPeriod,
	}
	log.Info().
		Str("file", filename).
		Str("strategy", doc.Strategy).
		Int("transactions", len(doc.Transactions)).
		Msg("document processed")
	return doc, nil
}

// ContentHash identifies a file by its bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ProcessFile is ProcessReader for a path on disk.
func (s *Service) ProcessFile(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.ProcessReader(ctx, f, filepath.Base(path))
}

// ExtractText loads the file without running the pipeline.
func (s *Service) ExtractText(ctx context.Context, r io.Reader, filename string) (*TextDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	src, err := s.registry.Load(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(src.Text) == "" {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnusableInput)
	}
	return &TextDocument{
		Filename:  filename,
		Format:    src.Format,
		PageCount: src.PageCount,
		Text:      src.Text,
	}, nil
}
