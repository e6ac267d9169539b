package script

import (
	"fmt"
	"strings"

	"github.com/mohitkumar/scriptproc/logger"
	"go.uber.org/zap"
)

// ComponentLog is the logger scripts see as `log`. Messages use {} placeholders
// that are filled from args in order.
type ComponentLog struct {
	logger *zap.Logger
}

func NewComponentLog(component string) *ComponentLog {
	return &ComponentLog{
		logger: logger.L().With(zap.String("processor", component)),
	}
}

func (l *ComponentLog) Debug(msg string, args ...any) {
	l.logger.Debug(format(msg, args))
}

func (l *ComponentLog) Info(msg string, args ...any) {
	l.logger.Info(format(msg, args))
}

func (l *ComponentLog) Warn(msg string, args ...any) {
	l.logger.Warn(format(msg, args))
}

func (l *ComponentLog) Error(msg string, args ...any) {
	l.logger.Error(format(msg, args))
}

func format(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	var sb strings.Builder
	i := 0
	for {
		idx := strings.Index(msg, "{}")
		if idx < 0 || i >= len(args) {
			sb.WriteString(msg)
			break
		}
		sb.WriteString(msg[:idx])
		sb.WriteString(fmt.Sprint(args[i]))
		msg = msg[idx+2:]
		i++
	}
	return sb.String()
}
