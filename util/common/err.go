package common

import (
	"github.com/mhsanaei/blogpanel/logger"
)

// Recover logs a recovered panic under msg. Use it as `defer common.Recover(msg)`.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil && msg != "" {
		logger.Error(msg, "panic:", panicErr)
	}
	return panicErr
}
