package pipeline

import (
	"go.uber.org/zap"

	"github.com/turahe/mediacore/pkg/logger"
)

// logInfo/logWarn guard against logger.Log being nil, the same
// defensive check internal/queue.runTask applies: in this package's
// own unit tests nothing calls logger.Init.
func logInfo(msg string, fields ...zap.Field) {
	if logger.Log != nil {
		logger.Log.Info(msg, fields...)
	}
}

func logWarn(msg string, fields ...zap.Field) {
	if logger.Log != nil {
		logger.Log.Warn(msg, fields...)
	}
}
