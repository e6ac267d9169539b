package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/scriptproc/analytics"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/processor"
	"github.com/mohitkumar/scriptproc/session"
	"github.com/mohitkumar/scriptproc/util"
	"go.uber.org/zap"
)

type Option func(*Runner)

// WithSink adds a sink that receives committed FlowFiles next to the
// in-memory results.
func WithSink(sink session.Sink) Option {
	return func(r *Runner) {
		r.extraSinks = append(r.extraSinks, sink)
	}
}

func WithCollector(collector analytics.DataCollector) Option {
	return func(r *Runner) {
		r.collector = collector
	}
}

// WithPenaltyDuration holds FlowFiles of a failed trigger, and FlowFiles the
// script penalizes, out of the queue for d.
func WithPenaltyDuration(d time.Duration) Option {
	return func(r *Runner) {
		r.penalty = d
	}
}

func WithIdentifier(id string) Option {
	return func(r *Runner) {
		r.identifier = id
	}
}

// Runner owns the queue feeding one processor and drives its lifecycle:
// properties, scheduling, triggers and session commits.
type Runner struct {
	proc       processor.Processor
	identifier string
	pc         *processor.ProcessContext
	queue      *session.Queue
	penalty    time.Duration
	results    *session.MemorySink
	extraSinks []session.Sink
	sinks      []session.Sink
	collector  analytics.DataCollector

	mu        sync.Mutex
	scheduled bool

	wg         sync.WaitGroup
	tickWorker *util.TickWorker
	workers    []*util.Worker
}

func New(proc processor.Processor, opts ...Option) (*Runner, error) {
	r := &Runner{
		proc:      proc,
		queue:     session.NewQueue(),
		results:   session.NewMemorySink(),
		collector: analytics.NoopDataCollector{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := proc.Initialize(processor.InitializationContext{Identifier: r.identifier}); err != nil {
		return nil, fmt.Errorf("error initializing processor: %w", err)
	}
	r.pc = processor.NewProcessContext(proc.Name())
	for _, d := range proc.SupportedPropertyDescriptors() {
		if len(d.DefaultValue) != 0 {
			r.pc.SetProperty(d, d.DefaultValue)
		}
	}
	// in-memory results only see a commit every extra sink accepted
	switch len(r.extraSinks) {
	case 0:
		r.sinks = []session.Sink{r.results}
	case 1:
		r.sinks = []session.Sink{r.extraSinks[0], r.results}
	default:
		r.sinks = []session.Sink{session.NewFanOutSink(r.extraSinks...), r.results}
	}
	return r, nil
}

func (r *Runner) Processor() processor.Processor {
	return r.proc
}

func (r *Runner) Context() *processor.ProcessContext {
	return r.pc
}

func (r *Runner) descriptor(name string) *processor.PropertyDescriptor {
	for _, d := range r.proc.SupportedPropertyDescriptors() {
		if d.Name == name {
			return d
		}
	}
	return r.proc.SupportedDynamicPropertyDescriptor(name)
}

// SetProperty validates value against the matching descriptor and stores it
// when valid.
func (r *Runner) SetProperty(name string, value string) processor.ValidationResult {
	d := r.descriptor(name)
	if d == nil {
		return processor.ValidationResult{Subject: name, Input: value, Explanation: fmt.Sprintf("%s is not a supported property", name)}
	}
	res := d.Validate(value)
	if res.Valid {
		r.pc.SetProperty(d, value)
	}
	return res
}

func (r *Runner) RemoveProperty(name string) bool {
	return r.pc.RemoveProperty(name)
}

func (r *Runner) Enqueue(content []byte, attrs map[string]string) *model.FlowFile {
	ff := model.NewFlowFile(content, attrs)
	r.queue.Offer(ff)
	return ff
}

func (r *Runner) EnqueueFlowFile(ff *model.FlowFile) {
	r.queue.Offer(ff)
}

func (r *Runner) QueueSize() int {
	return r.queue.Size()
}

func (r *Runner) FlowFilesForRelationship(rel model.Relationship) []*model.FlowFile {
	return r.results.FlowFiles(rel)
}

// DrainRelationship removes and returns up to count in-memory results for
// rel, all of them when count is zero or less.
func (r *Runner) DrainRelationship(rel model.Relationship, count int) []*model.FlowFile {
	return r.results.Drain(rel, count)
}

func (r *Runner) ClearResults() {
	r.results.Clear()
}

func (r *Runner) ensureScheduled() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduled {
		return nil
	}
	if err := r.proc.OnScheduled(r.pc); err != nil {
		return fmt.Errorf("error scheduling processor %s: %w", r.proc.Name(), err)
	}
	r.scheduled = true
	return nil
}

// Run triggers the processor iterations times, each in its own session. The
// first failing trigger rolls its session back and stops the run.
func (r *Runner) Run(ctx context.Context, iterations int) error {
	if err := r.ensureScheduled(); err != nil {
		return err
	}
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.trigger(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) trigger(ctx context.Context) error {
	s := session.NewProcessSession(r.proc.Name(), r.proc.Relationships(), r.queue, r.penalty, r.collector, r.sinks...)
	if err := r.proc.OnTrigger(ctx, r.pc, s); err != nil {
		s.Rollback(true)
		r.collector.RecordFailure(r.proc.Name(), err.Error())
		return err
	}
	if err := s.Commit(); err != nil {
		s.Rollback(false)
		r.collector.RecordFailure(r.proc.Name(), err.Error())
		return err
	}
	return nil
}

// Schedule triggers the processor every interval while the queue holds
// FlowFiles that are not penalized, spreading triggers over concurrentTasks
// workers.
func (r *Runner) Schedule(ctx context.Context, interval time.Duration, concurrentTasks int) error {
	if interval <= 0 {
		return fmt.Errorf("schedule interval should be positive, got %s", interval)
	}
	if err := r.ensureScheduled(); err != nil {
		return err
	}
	if concurrentTasks < 1 {
		concurrentTasks = 1
	}
	for i := 0; i < concurrentTasks; i++ {
		w := util.NewWorker(fmt.Sprintf("%s-task-%d", r.proc.Name(), i), &r.wg, func(util.Job) error {
			return r.trigger(ctx)
		}, 1)
		w.Start()
		r.workers = append(r.workers, w)
	}
	r.tickWorker = util.NewTickWorker(r.proc.Name()+"-scheduler", interval, func() {
		pending := r.queue.Available()
		for i := 0; i < pending && i < len(r.workers); i++ {
			select {
			case r.workers[i].Sender() <- struct{}{}:
			default:
			}
		}
	}, &r.wg)
	r.tickWorker.Start()
	logger.Info("processor scheduled", zap.String("processor", r.proc.Name()), zap.Duration("interval", interval), zap.Int("tasks", concurrentTasks))
	return nil
}

func (r *Runner) Stop() {
	if r.tickWorker != nil {
		r.tickWorker.Stop()
	}
	for _, w := range r.workers {
		w.Stop()
	}
	r.wg.Wait()
	r.tickWorker = nil
	r.workers = nil
}
