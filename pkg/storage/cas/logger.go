package cas

import (
	"strings"

	"github.com/marmos91/dittosync/internal/logger"
)

// badgerLogger routes BadgerDB's own logging through the application logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, v ...any)   { logger.Error("badger: "+trim(format), v...) }
func (badgerLogger) Warningf(format string, v ...any) { logger.Warn("badger: "+trim(format), v...) }
func (badgerLogger) Infof(format string, v ...any)    { logger.Debug("badger: "+trim(format), v...) }
func (badgerLogger) Debugf(format string, v ...any)   { logger.Debug("badger: "+trim(format), v...) }

func trim(format string) string {
	return strings.TrimRight(format, "\n")
}
