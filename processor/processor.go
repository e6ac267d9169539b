package processor

import (
	"context"
	"fmt"

	"github.com/mohitkumar/scriptproc/model"
)

// Session is the capability surface a processor (and its script) uses to
// pull, modify and route FlowFiles during one trigger.
type Session interface {
	Get() *model.FlowFile
	GetBatch(max int) []*model.FlowFile
	Create() *model.FlowFile
	Clone(ff *model.FlowFile) (*model.FlowFile, error)
	PutAttribute(ff *model.FlowFile, key string, value string) (*model.FlowFile, error)
	PutAllAttributes(ff *model.FlowFile, attrs map[string]string) (*model.FlowFile, error)
	RemoveAttribute(ff *model.FlowFile, key string) (*model.FlowFile, error)
	Read(ff *model.FlowFile) (string, error)
	Write(ff *model.FlowFile, content string) (*model.FlowFile, error)
	Transfer(ff *model.FlowFile, rel model.Relationship) error
	Remove(ff *model.FlowFile) error
	Penalize(ff *model.FlowFile) (*model.FlowFile, error)
}

type InitializationContext struct {
	Identifier string
}

// Processor is a pipeline stage driven by a dispatcher: Initialize once,
// OnScheduled when scheduling starts, OnTrigger per invocation.
type Processor interface {
	Initialize(ctx InitializationContext) error
	Name() string
	Relationships() []model.Relationship
	SupportedPropertyDescriptors() []*PropertyDescriptor
	SupportedDynamicPropertyDescriptor(name string) *PropertyDescriptor
	OnScheduled(pc *ProcessContext) error
	OnTrigger(ctx context.Context, pc *ProcessContext, session Session) error
}

// ProcessError aborts the current trigger.
type ProcessError struct {
	Message string
	Cause   error
}

func (e *ProcessError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}
