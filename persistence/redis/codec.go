package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohitkumar/scriptproc/model"
)

// routedFlowFile is one entry of a relationship list.
type routedFlowFile struct {
	Processor    string          `json:"processor"`
	Relationship string          `json:"relationship"`
	RoutedAt     int64           `json:"routedAt"`
	FlowFile     *model.FlowFile `json:"flowFile"`
}

func encodeRouted(processor string, rel model.Relationship, ff *model.FlowFile) ([]byte, error) {
	data, err := json.Marshal(routedFlowFile{
		Processor:    processor,
		Relationship: rel.Name,
		RoutedAt:     time.Now().UnixMilli(),
		FlowFile:     ff,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding flowfile %s: %w", ff.Id, err)
	}
	return data, nil
}

func decodeRouted(data []byte) (*routedFlowFile, error) {
	var r routedFlowFile
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("error decoding routed flowfile: %w", err)
	}
	if r.FlowFile == nil {
		return nil, fmt.Errorf("routed entry for %s carries no flowfile", r.Relationship)
	}
	return &r, nil
}
