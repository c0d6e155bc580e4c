package dataset

import (
	"context"
	"fmt"

	"github.com/theimaginaryfoundation/aita-sampler/sampling"
)

// Format names where the tables are read from.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// Source locates both tables for one of the supported formats.
type Source struct {
	Format Format

	SubmissionsPath string
	CommentsPath    string

	SQLitePath string
	SQLite     SQLiteOptions
}

func (s Source) Validate() error {
	switch s.Format {
	case FormatCSV:
		if s.SubmissionsPath == "" || s.CommentsPath == "" {
			return fmt.Errorf("csv source needs both submissions and comments paths")
		}
	case FormatSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("sqlite source needs a database path")
		}
	default:
		return fmt.Errorf("unknown source format %q (want csv or sqlite)", s.Format)
	}
	return nil
}

// Load reads both tables from src.
func Load(ctx context.Context, src Source) (sampling.Dataset, error) {
	if err := src.Validate(); err != nil {
		return sampling.Dataset{}, fmt.Errorf("Load: %w", err)
	}
	if src.Format == FormatSQLite {
		return LoadSQLite(ctx, src.SQLitePath, src.SQLite)
	}
	return LoadCSV(src.SubmissionsPath, src.CommentsPath)
}
