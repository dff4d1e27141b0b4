package refdata

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Loader reads a brand reference list from some backing store. Files
// are gzipped, one brand name per line.
type Loader interface {
	Load(ctx context.Context, path string) (*BrandSet, error)
}

// fileLoader implements Loader for local gzipped list files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based reference-list loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "refdata-loader").Logger(),
	}
}

// Load reads a gzipped line-list file and returns a BrandSet.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*BrandSet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading brand list")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open brand list")
		return nil, fmt.Errorf("failed to open brand list %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	set, err := readLines(ctx, gzipReader)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading brand list")
		return nil, fmt.Errorf("error reading brand list %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("brands_loaded", set.Size()).
		Msg("brand list loaded successfully")

	return set, nil
}

// readLines collects non-empty lines from r into a BrandSet.
func readLines(ctx context.Context, r io.Reader) (*BrandSet, error) {
	var names []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewBrandSet(names), nil
}
