package harness

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/runner"
	"go.uber.org/zap"
)

// Report summarises one harness run.
type Report struct {
	Enqueued int
	Routed   map[string]int
}

// Harness feeds every file of a source directory through a runner and writes
// the routed FlowFiles back to disk, one directory per relationship.
type Harness struct {
	layout Layout
	runner *runner.Runner
	sink   *DirSink
}

func New(layout Layout, r *runner.Runner) *Harness {
	return &Harness{
		layout: layout,
		runner: r,
		sink:   NewDirSink(layout),
	}
}

func (h *Harness) Runner() *runner.Runner {
	return h.runner
}

func (h *Harness) Run(ctx context.Context) (*Report, error) {
	rels := h.runner.Processor().Relationships()
	if err := h.layout.PrepareDirs(rels...); err != nil {
		return nil, err
	}
	if err := h.layout.CleanOutput(rels...); err != nil {
		return nil, err
	}
	h.runner.ClearResults()

	defaults := h.layout.DefaultAttributes()
	logMap("default attributes", defaults)

	dynamicProperties := h.layout.DynamicProperties()
	for k, v := range dynamicProperties {
		if res := h.runner.SetProperty(k, v); !res.Valid {
			logger.Error("failed to set dynamic property", zap.String("property", k), zap.String("reason", res.Explanation))
		}
	}
	logMap("dynamic properties", dynamicProperties)

	files, err := h.layout.SourceFiles()
	if err != nil {
		return nil, err
	}
	enqueued := 0
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Error("error reading source file", zap.String("file", path), zap.Error(err))
			continue
		}
		attrs := h.attributes(path, defaults, len(content))
		logger.Info("enqueuing file", zap.String("file", filepath.Base(path)), zap.String("filename", attrs[model.ATTR_FILENAME]))
		logger.Debug("file content", zap.String("file", filepath.Base(path)), zap.ByteString("content", content))
		h.runner.Enqueue(content, attrs)
		enqueued++
	}

	if err := h.runner.Run(ctx, enqueued); err != nil {
		return nil, err
	}

	report := &Report{Enqueued: enqueued, Routed: make(map[string]int)}
	for _, rel := range rels {
		ffs := h.runner.FlowFilesForRelationship(rel)
		report.Routed[rel.Name] = len(ffs)
		if err := h.sink.Deliver(rel, ffs); err != nil {
			return nil, err
		}
	}
	logger.Info("harness run finished", zap.Int("enqueued", report.Enqueued), zap.Any("routed", report.Routed))
	return report, nil
}

func (h *Harness) attributes(path string, defaults map[string]string, size int) map[string]string {
	attrs := make(map[string]string, len(defaults)+7)
	for k, v := range defaults {
		attrs[k] = v
	}
	id := uuid.NewString()
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	attrs[model.ATTR_FILENAME] = id
	attrs[model.ATTR_UUID] = id
	attrs[model.ATTR_PATH] = "./"
	attrs[model.ATTR_ENTRY_DATE] = now
	attrs[model.ATTR_LINEAGE_START_DATE] = now
	attrs[model.ATTR_FILE_SIZE] = strconv.Itoa(size)
	attrs[model.ATTR_ORIGINAL_FILENAME] = filepath.Base(path)

	specific := h.layout.SpecificAttributes(path)
	logMap("specific attributes for "+filepath.Base(path), specific)
	for k, v := range specific {
		attrs[k] = v
	}
	return attrs
}
