package extractor

import (
	"time"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/timefmt"
)

// NFSDatePattern is the format of the time fields in NFS list files. Values
// are always interpreted in UTC.
const NFSDatePattern = "dd-MMM-yyyy HH:mm:ss"

// ParseTimestamp parses an NFS list file time. A nil value yields a nil time
// and no error. The layout is taken from cache, which belongs to the calling
// worker; a nil cache compiles the layout for this call only.
func ParseTimestamp(cache *timefmt.Cache, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}

	if cache == nil {
		cache = timefmt.NewCache(1)
	}

	layout, err := cache.Layout(NFSDatePattern)
	if err != nil {
		return nil, err
	}

	t, err := layout.Parse(*value)
	if err != nil {
		return nil, &TimestampError{Value: *value, Err: err}
	}

	logger.Debug("parsed date [%s] to millis: %d", *value, t.UnixMilli())
	return &t, nil
}
