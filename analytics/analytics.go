package analytics

import "fmt"

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP"
const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const METRICS_DATA_COLLECTOR DataCollectorType = "METRICS_DATA_COLLECTOR"

// DataCollector receives an event for every committed routing decision and
// every failed trigger.
type DataCollector interface {
	RecordTransfer(processor string, flowFileId string, relationship string, size int)
	RecordFailure(processor string, reason string)
}

func NewDataCollector(config DataCollectorConfig) (DataCollector, error) {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		return NewLogFileDataCollector(config.FileName)
	case METRICS_DATA_COLLECTOR:
		return NewMetricsDataCollector()
	case NOOP_DATA_COLLECTOR, "":
		return NoopDataCollector{}, nil
	}
	return nil, fmt.Errorf("unknown data collector %s", config.CollectorType)
}

type NoopDataCollector struct{}

func (NoopDataCollector) RecordTransfer(processor string, flowFileId string, relationship string, size int) {
}

func (NoopDataCollector) RecordFailure(processor string, reason string) {
}
