package cas

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/filter/extractor"
	"github.com/marmos91/dittosync/pkg/model"
)

// SummaryReader yields list file summaries; Next returns io.EOF at the end.
type SummaryReader interface {
	Next() (*model.ObjectSummary, error)
}

// PayloadFunc returns the bytes of the file at relativePath.
type PayloadFunc func(relativePath string) ([]byte, error)

// ImportStats counts what Import stored.
type ImportStats struct {
	Clips       int
	Directories int
	Links       int
}

// Import stores one clip per summary, keyed by its identifier and carrying
// its list file row. Regular files take their payload from payload; NFS rows
// describing directories or symlinks are stored without one.
func (a *Archive) Import(ctx context.Context, summaries SummaryReader, payload PayloadFunc) (ImportStats, error) {
	var stats ImportStats

	for {
		summary, err := summaries.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		row, _ := summary.ListFileRow()
		record, err := extractor.ParseRecord(row)
		if err != nil {
			return stats, fmt.Errorf("import %s: %w", summary.Identifier, err)
		}
		path, ok := record.Field(extractor.FieldRelativePath)
		if !ok {
			return stats, fmt.Errorf("import %s: %w", summary.Identifier, extractor.ErrMissingPath)
		}

		clip := Clip{ListFileRow: row, Directory: summary.Directory}

		link := false
		if mode, ok := record.Field(extractor.FieldMode); ok && record[extractor.FieldType] == extractor.TypeNFS {
			link = extractor.IsSymlinkMode(mode)
		}

		switch {
		case clip.Directory:
			stats.Directories++
		case link:
			stats.Links++
		default:
			data, err := payload(path)
			if err != nil {
				return stats, fmt.Errorf("import %s: read %s: %w", summary.Identifier, path, err)
			}
			clip.Payload = data
		}

		if _, err := a.PutClip(ctx, summary.Identifier, clip); err != nil {
			return stats, err
		}
		stats.Clips++
		logger.Debug("cas: imported %s as %s", path, summary.Identifier)
	}
}
