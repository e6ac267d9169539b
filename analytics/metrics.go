package analytics

import (
	"context"

	"github.com/mohitkumar/scriptproc/logger"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.uber.org/zap"
)

var (
	ProcessorKey    = tag.MustNewKey("processor")
	RelationshipKey = tag.MustNewKey("relationship")

	FlowFilesRouted = stats.Int64("scriptproc/flowfiles_routed", "Number of FlowFiles routed to a relationship", stats.UnitDimensionless)
	BytesRouted     = stats.Int64("scriptproc/bytes_routed", "Content bytes routed to a relationship", stats.UnitBytes)
	TriggerFailures = stats.Int64("scriptproc/trigger_failures", "Number of triggers that ended in an error", stats.UnitDimensionless)
)

var Views = []*view.View{
	{
		Name:        "scriptproc/flowfiles_routed",
		Description: "Count of FlowFiles routed per relationship",
		Measure:     FlowFilesRouted,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProcessorKey, RelationshipKey},
	},
	{
		Name:        "scriptproc/bytes_routed",
		Description: "Sum of content bytes routed per relationship",
		Measure:     BytesRouted,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{ProcessorKey, RelationshipKey},
	},
	{
		Name:        "scriptproc/trigger_failures",
		Description: "Count of failed triggers",
		Measure:     TriggerFailures,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProcessorKey},
	},
}

var _ DataCollector = new(MetricsDataCollector)

// MetricsDataCollector records routing events as opencensus measurements.
type MetricsDataCollector struct{}

func NewMetricsDataCollector() (*MetricsDataCollector, error) {
	if err := view.Register(Views...); err != nil {
		return nil, err
	}
	return &MetricsDataCollector{}, nil
}

func (mc *MetricsDataCollector) RecordTransfer(processor string, flowFileId string, relationship string, size int) {
	err := stats.RecordWithTags(context.Background(),
		[]tag.Mutator{tag.Upsert(ProcessorKey, processor), tag.Upsert(RelationshipKey, relationship)},
		FlowFilesRouted.M(1), BytesRouted.M(int64(size)))
	if err != nil {
		logger.Error("error recording transfer metric", zap.String("flowFile", flowFileId), zap.Error(err))
	}
}

func (mc *MetricsDataCollector) RecordFailure(processor string, reason string) {
	err := stats.RecordWithTags(context.Background(),
		[]tag.Mutator{tag.Upsert(ProcessorKey, processor)},
		TriggerFailures.M(1))
	if err != nil {
		logger.Error("error recording failure metric", zap.String("processor", processor), zap.Error(err))
	}
}
