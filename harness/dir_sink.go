package harness

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/session"
	"go.uber.org/zap"
)

var _ session.Sink = new(DirSink)

// DirSink writes each FlowFile's content to <out>/<relationship>/<filename>.
// Existing files are left alone and write errors are logged, not returned.
type DirSink struct {
	layout Layout
}

func NewDirSink(layout Layout) *DirSink {
	return &DirSink{layout: layout}
}

func (ds *DirSink) Deliver(rel model.Relationship, ffs []*model.FlowFile) error {
	dir := ds.layout.RelationshipDir(rel)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, ff := range ffs {
		name := filepath.Base(ff.GetAttribute(model.ATTR_FILENAME))
		if name == "." || name == string(filepath.Separator) {
			name = ff.Id
		}
		ds.write(filepath.Join(dir, name), ff.Content)
	}
	return nil
}

func (ds *DirSink) write(path string, content []byte) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if !errors.Is(err, os.ErrExist) {
			logger.Error("error writing flowfile", zap.String("file", path), zap.Error(err))
		}
		return
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		logger.Error("error writing flowfile", zap.String("file", path), zap.Error(err))
	}
}
