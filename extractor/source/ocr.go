package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aqlanhadi/txnrecon/logger"
)

var ErrOCRNoText = errors.New("ocr produced no text")

// ProgressFunc is called after every page, whether it succeeded or not.
type ProgressFunc func(page, total int)

// OCRLoader shells out to pdftoppm and tesseract for scanned documents.
type OCRLoader struct {
	DPI      int
	Language string
	Progress ProgressFunc

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewOCRLoader(dpi int, language string) *OCRLoader {
	if dpi <= 0 {
		dpi = 300
	}
	if language == "" {
		language = "eng"
	}
	return &OCRLoader{DPI: dpi, Language: language, run: runCommand}
}

// OCRAvailable reports whether both external tools are on PATH.
func OCRAvailable() bool {
	for _, tool := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
	}
	return true
}

func (l *OCRLoader) Name() string {
	return "ocr"
}

func (l *OCRLoader) Accepts(filename string) bool {
	f := FormatOf(filename)
	return f == FormatPDF || f == FormatImage
}

// Load OCRs every page. A failing page is logged and skipped; the loader
// only fails when no page produced text.
func (l *OCRLoader) Load(ctx context.Context, filename string, data []byte) (*Document, error) {
	tmpDir, err := os.MkdirTemp("", "txnrecon-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input."+Extension(filename))
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", input, err)
	}

	images := []string{input}
	format := FormatOf(filename)
	if format == FormatPDF {
		images, err = l.rasterize(ctx, input, tmpDir)
		if err != nil {
			return nil, err
		}
	}

	log := logger.FromContext(ctx)
	pages := make([]string, 0, len(images))
	for i, img := range images {
		text, err := l.recognize(ctx, img)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("file", filename).Int("page", i+1).Msg("ocr failed on page")
		case text != "":
			pages = append(pages, text)
		}
		log.Info().Str("file", filename).Int("page", i+1).Int("total", len(images)).Msg("ocr page done")
		if l.Progress != nil {
			l.Progress(i+1, len(images))
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w from %d page(s)", filename, ErrOCRNoText, len(images))
	}
	return &Document{
		Filename:  filename,
		Format:    format,
		Text:      joinPages(pages),
		PageCount: len(images),
	}, nil
}

func (l *OCRLoader) rasterize(ctx context.Context, input, dir string) ([]string, error) {
	prefix := filepath.Join(dir, "page")
	if out, err := l.run(ctx, "pdftoppm", "-r", strconv.Itoa(l.DPI), "-png", input, prefix); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}
	var images []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "page") && strings.HasSuffix(e.Name(), ".png") {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	// pdftoppm zero-pads page numbers, so name order is page order
	sort.Strings(images)
	if len(images) == 0 {
		return nil, errors.New("pdftoppm produced no page images")
	}
	return images, nil
}

func (l *OCRLoader) recognize(ctx context.Context, image string) (string, error) {
	// psm 4 assumes a single column of variable-size text
	out, err := l.run(ctx, "tesseract", image, "stdout", "-l", l.Language, "--psm", "4")
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return []byte(stderr.String()), err
	}
	return out, nil
}
