package async

import (
	"runtime/debug"

	"github.com/tryfix/log"
)

// LogPanicTrace logs a recovered panic together with its stack. Must be deferred.
func LogPanicTrace(logger log.Logger) {
	if r := recover(); r != nil {
		logger.Fatal(r, string(debug.Stack()))
	}
}
