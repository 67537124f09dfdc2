package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/aqlanhadi/txnrecon/extractor/source"
	"github.com/aqlanhadi/txnrecon/logger"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoLoader means the format is known but the capability to read it
	// (such as OCR for images) was not registered.
	ErrNoLoader = errors.New("no loader available for file")
)

// Registry holds the capabilities detected at startup: document loaders
// and text strategies, each in the order they should be tried.
type Registry struct {
	loaders    []source.Loader
	strategies []TextStrategy
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) RegisterLoader(l source.Loader) *Registry {
	r.loaders = append(r.loaders, l)
	return r
}

func (r *Registry) RegisterStrategy(s TextStrategy) *Registry {
	r.strategies = append(r.strategies, s)
	return r
}

func (r *Registry) Strategies() []TextStrategy {
	return r.strategies
}

func (r *Registry) LoaderNames() []string {
	names := make([]string, 0, len(r.loaders))
	for _, l := range r.loaders {
		names = append(names, l.Name())
	}
	return names
}

func (r *Registry) StrategyNames() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Supports reports whether some registered loader accepts filename.
func (r *Registry) Supports(filename string) bool {
	for _, l := range r.loaders {
		if l.Accepts(filename) {
			return true
		}
	}
	return false
}

// Load tries every accepting loader in registration order and returns the
// first document with content. When all of them come back empty the last
// empty document is returned so callers can still report page counts.
func (r *Registry) Load(ctx context.Context, filename string, data []byte) (*source.Document, error) {
	log := logger.FromContext(ctx)

	var (
		tried   bool
		lastDoc *source.Document
		lastErr error
	)
	for _, l := range r.loaders {
		if !l.Accepts(filename) {
			continue
		}
		tried = true
		doc, err := l.Load(ctx, filename, data)
		if err != nil {
			log.Warn().Err(err).Str("loader", l.Name()).Str("file", filename).Msg("loader failed, trying next")
			lastErr = err
			continue
		}
		if !doc.Empty() {
			log.Debug().Str("loader", l.Name()).Str("file", filename).Msg("document loaded")
			return doc, nil
		}
		log.Debug().Str("loader", l.Name()).Str("file", filename).Msg("loader found no content")
		lastDoc = doc
	}

	switch {
	case lastDoc != nil:
		return lastDoc, nil
	case lastErr != nil:
		return nil, lastErr
	case tried:
		return nil, fmt.Errorf("%s: %w", filename, ErrNoLoader)
	case source.FormatOf(filename) != "":
		return nil, fmt.Errorf("%s: %w", filename, ErrNoLoader)
	}
	return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
}
