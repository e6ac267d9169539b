package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mohitkumar/scriptproc/analytics"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/processor"
)

var _ processor.Session = new(ProcessSession)

// ProcessSession tracks the FlowFiles one trigger pulls from the queue or
// creates. The trigger hands out working copies; originals stay untouched so
// Rollback can return them to the queue. Commit requires every FlowFile the
// session owns to be transferred or removed.
type ProcessSession struct {
	processor     string
	queue         *Queue
	penalty       time.Duration
	sinks         []Sink
	collector     analytics.DataCollector
	relationships map[string]model.Relationship

	originals map[string]*model.FlowFile
	current   map[string]*model.FlowFile
	order     []string
	transfers map[string]model.Relationship
	removed   map[string]bool
}

// NewProcessSession builds a session over queue. Penalized FlowFiles are held
// back for penalty. Commit hands the routed FlowFiles to sinks in the given
// order and only moves on to the next sink once the previous one accepted
// every relationship.
func NewProcessSession(processorName string, relationships []model.Relationship, queue *Queue, penalty time.Duration, collector analytics.DataCollector, sinks ...Sink) *ProcessSession {
	rels := make(map[string]model.Relationship, len(relationships))
	for _, r := range relationships {
		rels[r.Name] = r
	}
	if collector == nil {
		collector = analytics.NoopDataCollector{}
	}
	s := &ProcessSession{
		processor:     processorName,
		queue:         queue,
		penalty:       penalty,
		sinks:         sinks,
		collector:     collector,
		relationships: rels,
	}
	s.reset()
	return s
}

func (s *ProcessSession) reset() {
	s.originals = make(map[string]*model.FlowFile)
	s.current = make(map[string]*model.FlowFile)
	s.order = nil
	s.transfers = make(map[string]model.Relationship)
	s.removed = make(map[string]bool)
}

func workingCopy(ff *model.FlowFile) *model.FlowFile {
	cp := *ff
	cp.Attributes = make(map[string]string, len(ff.Attributes))
	for k, v := range ff.Attributes {
		cp.Attributes[k] = v
	}
	cp.Content = append([]byte(nil), ff.Content...)
	return &cp
}

func (s *ProcessSession) track(ff *model.FlowFile) *model.FlowFile {
	s.current[ff.Id] = ff
	s.order = append(s.order, ff.Id)
	return ff
}

// Get pulls the next FlowFile from the queue, nil when the queue is empty.
func (s *ProcessSession) Get() *model.FlowFile {
	ff := s.queue.Poll()
	if ff == nil {
		return nil
	}
	s.originals[ff.Id] = ff
	return s.track(workingCopy(ff))
}

func (s *ProcessSession) GetBatch(max int) []*model.FlowFile {
	ffs := s.queue.PollBatch(max)
	out := make([]*model.FlowFile, 0, len(ffs))
	for _, ff := range ffs {
		s.originals[ff.Id] = ff
		out = append(out, s.track(workingCopy(ff)))
	}
	return out
}

func (s *ProcessSession) Create() *model.FlowFile {
	return s.track(model.NewFlowFile(nil, nil))
}

func (s *ProcessSession) Clone(ff *model.FlowFile) (*model.FlowFile, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return nil, err
	}
	return s.track(cur.Clone()), nil
}

func (s *ProcessSession) owned(ff *model.FlowFile) (*model.FlowFile, error) {
	if ff == nil {
		return nil, fmt.Errorf("flowfile can not be null")
	}
	cur, ok := s.current[ff.Id]
	if !ok {
		return nil, fmt.Errorf("flowfile %s is not known in this session", ff.Id)
	}
	if s.removed[ff.Id] {
		return nil, fmt.Errorf("flowfile %s was removed in this session", ff.Id)
	}
	return cur, nil
}

func (s *ProcessSession) PutAttribute(ff *model.FlowFile, key string, value string) (*model.FlowFile, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return nil, err
	}
	if key == model.ATTR_UUID {
		return cur, nil
	}
	cur.Attributes[key] = value
	return cur, nil
}

func (s *ProcessSession) PutAllAttributes(ff *model.FlowFile, attrs map[string]string) (*model.FlowFile, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return nil, err
	}
	for k, v := range attrs {
		if k == model.ATTR_UUID {
			continue
		}
		cur.Attributes[k] = v
	}
	return cur, nil
}

func (s *ProcessSession) RemoveAttribute(ff *model.FlowFile, key string) (*model.FlowFile, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return nil, err
	}
	if key != model.ATTR_UUID {
		delete(cur.Attributes, key)
	}
	return cur, nil
}

func (s *ProcessSession) Read(ff *model.FlowFile) (string, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return "", err
	}
	return string(cur.Content), nil
}

func (s *ProcessSession) Write(ff *model.FlowFile, content string) (*model.FlowFile, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return nil, err
	}
	cur.Content = []byte(content)
	cur.Attributes[model.ATTR_FILE_SIZE] = strconv.Itoa(len(cur.Content))
	return cur, nil
}

func (s *ProcessSession) Transfer(ff *model.FlowFile, rel model.Relationship) error {
	cur, err := s.owned(ff)
	if err != nil {
		return err
	}
	known, ok := s.relationships[rel.Name]
	if !ok {
		return fmt.Errorf("relationship %s is not defined for processor %s", rel.Name, s.processor)
	}
	s.transfers[cur.Id] = known
	return nil
}

func (s *ProcessSession) Remove(ff *model.FlowFile) error {
	cur, err := s.owned(ff)
	if err != nil {
		return err
	}
	delete(s.transfers, cur.Id)
	s.removed[cur.Id] = true
	return nil
}

func (s *ProcessSession) Penalize(ff *model.FlowFile) (*model.FlowFile, error) {
	cur, err := s.owned(ff)
	if err != nil {
		return nil, err
	}
	cur.PenalizedUntil = time.Now().Add(s.penalty)
	return cur, nil
}

// Commit delivers the transferred FlowFiles to the sink, grouped by
// relationship in the order the session first saw them.
func (s *ProcessSession) Commit() error {
	for _, id := range s.order {
		if _, ok := s.transfers[id]; ok {
			continue
		}
		if s.removed[id] {
			continue
		}
		return fmt.Errorf("flowfile %s was neither transferred nor removed", id)
	}
	grouped := make(map[string][]*model.FlowFile)
	var rels []model.Relationship
	for _, id := range s.order {
		rel, ok := s.transfers[id]
		if !ok {
			continue
		}
		if _, seen := grouped[rel.Name]; !seen {
			rels = append(rels, rel)
		}
		grouped[rel.Name] = append(grouped[rel.Name], s.current[id])
	}
	for _, sink := range s.sinks {
		for _, rel := range rels {
			if err := sink.Deliver(rel, grouped[rel.Name]); err != nil {
				return fmt.Errorf("error delivering to %s: %w", rel.Name, err)
			}
		}
	}
	for _, rel := range rels {
		for _, ff := range grouped[rel.Name] {
			s.collector.RecordTransfer(s.processor, ff.Id, rel.Name, ff.Size())
		}
	}
	s.reset()
	return nil
}

// Rollback returns every FlowFile pulled from the queue, unchanged, and
// forgets anything the session created. With penalize the returned FlowFiles
// are skipped by the queue for the session's penalty duration.
func (s *ProcessSession) Rollback(penalize bool) {
	returned := make([]*model.FlowFile, 0, len(s.originals))
	until := time.Now().Add(s.penalty)
	for _, id := range s.order {
		if ff, ok := s.originals[id]; ok {
			if penalize {
				ff.PenalizedUntil = until
			}
			returned = append(returned, ff)
		}
	}
	s.queue.Requeue(returned...)
	s.reset()
}
