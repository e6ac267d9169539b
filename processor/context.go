package processor

import (
	"sync"

	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/util"
)

type PropertyValue struct {
	value string
	set   bool
}

func (pv PropertyValue) Value() string {
	return pv.value
}

func (pv PropertyValue) IsSet() bool {
	return pv.set
}

// EvaluateAttributeExpressions resolves {$.attr} tokens against ff.
func (pv PropertyValue) EvaluateAttributeExpressions(ff *model.FlowFile) string {
	if ff == nil {
		return pv.value
	}
	return util.ResolveAttributeExpressions(ff.Attributes, pv.value)
}

// ProcessContext holds the configured property values of one processor.
// It is safe to read while another goroutine updates properties.
type ProcessContext struct {
	mu          sync.RWMutex
	name        string
	descriptors []*PropertyDescriptor
	values      map[string]string
}

func NewProcessContext(name string) *ProcessContext {
	return &ProcessContext{
		name:   name,
		values: make(map[string]string),
	}
}

func (pc *ProcessContext) Name() string {
	return pc.name
}

func (pc *ProcessContext) SetProperty(pd *PropertyDescriptor, value string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if _, ok := pc.values[pd.Name]; !ok {
		pc.descriptors = append(pc.descriptors, pd)
	} else {
		for i, d := range pc.descriptors {
			if d.Name == pd.Name {
				pc.descriptors[i] = pd
			}
		}
	}
	pc.values[pd.Name] = value
}

func (pc *ProcessContext) RemoveProperty(name string) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if _, ok := pc.values[name]; !ok {
		return false
	}
	delete(pc.values, name)
	for i, d := range pc.descriptors {
		if d.Name == name {
			pc.descriptors = append(pc.descriptors[:i], pc.descriptors[i+1:]...)
			break
		}
	}
	return true
}

func (pc *ProcessContext) GetProperty(name string) PropertyValue {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	v, ok := pc.values[name]
	return PropertyValue{value: v, set: ok}
}

// Descriptors returns the descriptors of every configured property in the
// order they were first set.
func (pc *ProcessContext) Descriptors() []*PropertyDescriptor {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	out := make([]*PropertyDescriptor, len(pc.descriptors))
	copy(out, pc.descriptors)
	return out
}

func (pc *ProcessContext) Properties() map[string]string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	out := make(map[string]string, len(pc.values))
	for k, v := range pc.values {
		out[k] = v
	}
	return out
}

func (pc *ProcessContext) DynamicProperties() map[string]string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	out := make(map[string]string)
	for _, d := range pc.descriptors {
		if d.Dynamic {
			out[d.Name] = pc.values[d.Name]
		}
	}
	return out
}
