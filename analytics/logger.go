package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ DataCollector = new(LogFileDataCollector)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = "" // to hide stacktrace info
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordTransfer(processor string, flowFileId string, relationship string, size int) {
	lc.logger.Info("transfer", zap.String("processor", processor), zap.String("flowFile", flowFileId), zap.String("relationship", relationship), zap.Int("size", size))
}

func (lc *LogFileDataCollector) RecordFailure(processor string, reason string) {
	lc.logger.Info("failure", zap.String("processor", processor), zap.String("reason", reason))
}

func (lc *LogFileDataCollector) Close() error {
	return lc.logger.Sync()
}
