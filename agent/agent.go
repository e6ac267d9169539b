package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohitkumar/scriptproc/analytics"
	"github.com/mohitkumar/scriptproc/config"
	"github.com/mohitkumar/scriptproc/harness"
	"github.com/mohitkumar/scriptproc/logger"
	rd "github.com/mohitkumar/scriptproc/persistence/redis"
	"github.com/mohitkumar/scriptproc/processor"
	"github.com/mohitkumar/scriptproc/rest"
	"github.com/mohitkumar/scriptproc/runner"
	"github.com/mohitkumar/scriptproc/script"
	"github.com/mohitkumar/scriptproc/session"
	"go.uber.org/zap"
)

type Agent struct {
	Config       config.Config
	collector    analytics.DataCollector
	source       script.Source
	sink         session.Sink
	restOptions  []rest.Option
	runner       *runner.Runner
	httpServer   *rest.Server
	closers      []func() error
	cancel       context.CancelFunc
	shutdown     bool
	shutdownLock sync.Mutex
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupCollector,
		a.setupScriptSource,
		a.setupSink,
		a.setupRunner,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) redisConfig() rd.Config {
	return rd.Config{
		Addrs:     a.Config.RedisConfig.Addrs,
		Namespace: a.Config.RedisConfig.Namespace,
		Password:  a.Config.RedisConfig.Password,
		PoolSize:  a.Config.RedisConfig.PoolSize,
	}
}

func (a *Agent) harnessLayout() harness.Layout {
	return harness.Layout{
		SourceDir: a.Config.HarnessConfig.SourceDir,
		OutDir:    a.Config.HarnessConfig.OutDir,
	}
}

func (a *Agent) setupCollector() error {
	c, err := analytics.NewDataCollector(a.Config.AnalyticsConfig)
	if err != nil {
		return err
	}
	if lc, ok := c.(*analytics.LogFileDataCollector); ok {
		a.closers = append(a.closers, lc.Close)
	}
	a.collector = c
	return nil
}

func (a *Agent) setupScriptSource() error {
	conf := a.Config.ScriptConfig
	switch conf.SourceType {
	case config.SCRIPT_SOURCE_BUNDLED, "":
		a.source = script.BundledSource{}
	case config.SCRIPT_SOURCE_FILE:
		if len(conf.Location) == 0 {
			return fmt.Errorf("script location is required for %s source", conf.SourceType)
		}
		a.source = script.NewFileSource(conf.Location)
	case config.SCRIPT_SOURCE_REDIS:
		if len(conf.Location) == 0 {
			return fmt.Errorf("script location is required for %s source", conf.SourceType)
		}
		src := rd.NewRedisScriptSource(a.redisConfig(), conf.Location)
		a.closers = append(a.closers, src.Close)
		a.restOptions = append(a.restOptions, rest.WithScriptStore(src))
		a.source = src
	default:
		return fmt.Errorf("unknown script source %s", conf.SourceType)
	}
	return nil
}

func (a *Agent) setupSink() error {
	switch a.Config.SinkType {
	case config.SINK_TYPE_MEMORY, "":
	case config.SINK_TYPE_DIR:
		a.sink = harness.NewDirSink(a.harnessLayout())
	case config.SINK_TYPE_REDIS:
		s := rd.NewRedisSink(a.redisConfig(), a.Config.ProcessorName)
		a.closers = append(a.closers, s.Close)
		a.restOptions = append(a.restOptions, rest.WithDrainer(s))
		a.sink = s
	default:
		return fmt.Errorf("unknown sink %s", a.Config.SinkType)
	}
	return nil
}

func (a *Agent) setupRunner() error {
	engine := script.NewEngine(script.EngineConfig{
		CacheTTL: a.Config.ScriptConfig.CacheTTL,
		Timeout:  a.Config.ScriptConfig.Timeout,
	})
	proc := processor.NewScriptProcessor(a.Config.ProcessorName, a.source, engine)
	opts := []runner.Option{
		runner.WithCollector(a.collector),
		runner.WithIdentifier(a.Config.ProcessorName),
		runner.WithPenaltyDuration(a.Config.PenaltyDuration),
	}
	if a.sink != nil {
		opts = append(opts, runner.WithSink(a.sink))
	}
	r, err := runner.New(proc, opts...)
	if err != nil {
		return err
	}
	a.runner = r
	return nil
}

func (a *Agent) Runner() *runner.Runner {
	return a.runner
}

// RunHarness feeds the configured source directory through the processor
// once and returns when every file has been routed.
func (a *Agent) RunHarness(ctx context.Context) (*harness.Report, error) {
	return harness.New(a.harnessLayout(), a.runner).Run(ctx)
}

// Start serves the HTTP surface and schedules the processor.
func (a *Agent) Start() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.runner, a.restOptions...)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if err := a.runner.Schedule(ctx, a.Config.ScheduleInterval, a.Config.ConcurrentTasks); err != nil {
		return err
	}
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			logger.Error("error closing resource", zap.Error(err))
		}
	}
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	logger.Info("shutting down", zap.String("processor", a.Config.ProcessorName))

	if a.httpServer != nil {
		if err := a.httpServer.Stop(); err != nil {
			return err
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.runner.Stop()
	a.close()
	return nil
}
