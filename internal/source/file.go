package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
	signalschema "github.com/CyanTarantula/trend-pulse/schema"
)

// File reads a JSON batch written by an external scraper. The batch must pass
// the ingestion schema.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string {
	return "file:" + filepath.Base(f.path)
}

func (f *File) Fetch(ctx context.Context) ([]signal.RawSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	signals, err := signalschema.ValidateSignalBatch(payload)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", f.path, err)
	}
	return signals, nil
}
