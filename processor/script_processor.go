package processor

import (
	"context"
	"fmt"

	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/script"
	"go.uber.org/zap"
)

// Names under which the trigger state is visible to the script.
const (
	BINDING_SESSION            = "session"
	BINDING_CONTEXT            = "context"
	BINDING_LOG                = "log"
	BINDING_REL_SUCCESS        = "REL_SUCCESS"
	BINDING_REL_FAILURE        = "REL_FAILURE"
	BINDING_DYNAMIC_PROPERTIES = "dynamicProperties"
)

var _ Processor = new(ScriptProcessor)

// ScriptProcessor hands every trigger to a user supplied script. The script
// decides what to pull from the session and where to route it; the
// processor only loads it and binds the trigger state into its scope.
type ScriptProcessor struct {
	name          string
	source        script.Source
	engine        *script.Engine
	log           *script.ComponentLog
	descriptors   []*PropertyDescriptor
	relationships []model.Relationship
}

func NewScriptProcessor(name string, source script.Source, engine *script.Engine) *ScriptProcessor {
	return &ScriptProcessor{
		name:   name,
		source: source,
		engine: engine,
		log:    script.NewComponentLog(name),
	}
}

func (p *ScriptProcessor) Initialize(ctx InitializationContext) error {
	if len(ctx.Identifier) != 0 {
		p.name = ctx.Identifier
		p.log = script.NewComponentLog(ctx.Identifier)
	}
	p.descriptors = []*PropertyDescriptor{}
	p.relationships = []model.Relationship{model.Success, model.Failure}
	return nil
}

func (p *ScriptProcessor) Name() string {
	return p.name
}

func (p *ScriptProcessor) Relationships() []model.Relationship {
	out := make([]model.Relationship, len(p.relationships))
	copy(out, p.relationships)
	return out
}

func (p *ScriptProcessor) SupportedPropertyDescriptors() []*PropertyDescriptor {
	return p.descriptors
}

// SupportedDynamicPropertyDescriptor accepts any name; the value is never
// checked.
func (p *ScriptProcessor) SupportedDynamicPropertyDescriptor(name string) *PropertyDescriptor {
	return &PropertyDescriptor{
		Name:        name,
		DisplayName: name,
		Description: "Dynamic property: " + name,
		Required:    false,
		Dynamic:     true,
		Validators:  []Validator{AlwaysValid},
	}
}

func (p *ScriptProcessor) OnScheduled(pc *ProcessContext) error {
	logger.Debug("processor scheduled", zap.String("processor", p.name))
	return nil
}

func (p *ScriptProcessor) OnTrigger(ctx context.Context, pc *ProcessContext, session Session) error {
	properties := pc.Properties()
	for _, d := range pc.Descriptors() {
		p.log.Info("Property: {} = {}", d.Name, properties[d.Name])
	}
	dynamicProperties := pc.DynamicProperties()

	s, err := p.source.Load(ctx)
	if err != nil {
		return &ProcessError{Message: "failed to parse script", Cause: err}
	}
	program, err := p.engine.Compile(s)
	if err != nil {
		return &ProcessError{Message: fmt.Sprintf("failed to parse script %s", s.Name), Cause: err}
	}

	return p.engine.Run(ctx, program, map[string]any{
		BINDING_SESSION:            session,
		BINDING_CONTEXT:            pc,
		BINDING_LOG:                p.log,
		BINDING_REL_SUCCESS:        model.Success,
		BINDING_REL_FAILURE:        model.Failure,
		BINDING_DYNAMIC_PROPERTIES: dynamicProperties,
	})
}
