package badger

import (
	"fmt"
	"strings"

	"github.com/marmos91/gopherd/internal/logger"
)

// badgerLogger forwards BadgerDB's own log output to the process logger so it
// follows logging.level, logging.format and logging.output. Badger's info
// chatter (compactions, table loads) is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error("%s", badgerMessage(format, args))
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn("%s", badgerMessage(format, args))
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug("%s", badgerMessage(format, args))
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug("%s", badgerMessage(format, args))
}

func badgerMessage(format string, args []any) string {
	return "badger: " + strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
