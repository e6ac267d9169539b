package script

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dop251/goja"
	"github.com/mohitkumar/scriptproc/logger"
	c "github.com/patrickmn/go-cache"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

type EngineConfig struct {
	// CacheTTL keeps compiled programs keyed by source hash. Zero disables the
	// cache and every run compiles again.
	CacheTTL time.Duration
	// Timeout interrupts a running script. Zero means no limit.
	Timeout time.Duration
}

type Engine struct {
	cache   *c.Cache
	timeout time.Duration
}

func NewEngine(conf EngineConfig) *Engine {
	e := &Engine{timeout: conf.Timeout}
	if conf.CacheTTL > 0 {
		e.cache = c.New(conf.CacheTTL, 2*conf.CacheTTL)
	}
	return e
}

func (e *Engine) Compile(s *Script) (*goja.Program, error) {
	var key string
	if e.cache != nil {
		key = s.Name + ":" + strconv.FormatUint(murmur3.Sum64([]byte(s.Code)), 16)
		if p, found := e.cache.Get(key); found {
			return p.(*goja.Program), nil
		}
	}
	program, err := goja.Compile(s.Name, s.Code, false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program, c.DefaultExpiration)
	}
	return program, nil
}

// Run executes program once in a fresh runtime with bindings set as globals.
// Go field and method names are exposed to the script in lower camel case.
func (e *Engine) Run(ctx context.Context, program *goja.Program, bindings map[string]any) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	for name, value := range bindings {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("error binding %s: %w", name, err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err := vm.RunProgram(program)
	if err != nil {
		logger.Debug("script execution failed", zap.Error(err))
		return err
	}
	return nil
}
