package session

import (
	"sync"

	"github.com/mohitkumar/scriptproc/model"
)

// Sink receives the FlowFiles a committed session routed to rel.
type Sink interface {
	Deliver(rel model.Relationship, ffs []*model.FlowFile) error
}

// FanOutSink delivers to every sink in parallel and returns the first error.
type FanOutSink struct {
	sinks []Sink
}

var _ Sink = new(FanOutSink)

func NewFanOutSink(sinks ...Sink) *FanOutSink {
	return &FanOutSink{sinks: sinks}
}

func (f *FanOutSink) Deliver(rel model.Relationship, ffs []*model.FlowFile) error {
	var wg sync.WaitGroup
	errs := make([]error, len(f.sinks))
	for i, s := range f.sinks {
		wg.Add(1)
		go func(idx int, s Sink) {
			defer wg.Done()
			errs[idx] = s.Deliver(rel, ffs)
		}(i, s)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// MemorySink keeps delivered FlowFiles per relationship.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]*model.FlowFile
}

var _ Sink = new(MemorySink)

func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]*model.FlowFile)}
}

func (m *MemorySink) Deliver(rel model.Relationship, ffs []*model.FlowFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[rel.Name] = append(m.files[rel.Name], ffs...)
	return nil
}

func (m *MemorySink) FlowFiles(rel model.Relationship) []*model.FlowFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.FlowFile, len(m.files[rel.Name]))
	copy(out, m.files[rel.Name])
	return out
}

func (m *MemorySink) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string][]*model.FlowFile)
}

// Drain removes and returns up to count FlowFiles delivered to rel, oldest
// first. A count of zero or less drains everything.
func (m *MemorySink) Drain(rel model.Relationship, count int) []*model.FlowFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := m.files[rel.Name]
	if count <= 0 || count > len(files) {
		count = len(files)
	}
	out := make([]*model.FlowFile, count)
	copy(out, files[:count])
	if count == len(files) {
		delete(m.files, rel.Name)
	} else {
		m.files[rel.Name] = append([]*model.FlowFile(nil), files[count:]...)
	}
	return out
}
