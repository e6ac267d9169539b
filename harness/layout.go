package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"go.uber.org/zap"
)

const DEFAULT_ATTRIBUTES_FILE string = "default.attributes"
const DYNAMIC_PROPERTIES_FILE string = "dynamic-properties.json"
const ATTRIBUTES_SUFFIX string = ".attributes"

// Layout is the on-disk convention of the harness: a source directory with
// input files and JSON sidecars, and one output directory per relationship.
type Layout struct {
	SourceDir string
	OutDir    string
}

func (l Layout) RelationshipDir(rel model.Relationship) string {
	return filepath.Join(l.OutDir, rel.Name)
}

func (l Layout) PrepareDirs(rels ...model.Relationship) error {
	dirs := []string{l.SourceDir}
	for _, rel := range rels {
		dirs = append(dirs, l.RelationshipDir(rel))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating %s: %w", dir, err)
		}
	}
	return nil
}

// CleanOutput removes every file left in the relationship directories by a
// previous run.
func (l Layout) CleanOutput(rels ...model.Relationship) error {
	for _, rel := range rels {
		dir := l.RelationshipDir(rel)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func isSidecar(name string) bool {
	return strings.HasSuffix(name, ATTRIBUTES_SUFFIX) || name == DYNAMIC_PROPERTIES_FILE
}

// SourceFiles lists the input files of the source directory, sidecars
// excluded, in name order.
func (l Layout) SourceFiles() ([]string, error) {
	entries, err := os.ReadDir(l.SourceDir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || isSidecar(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(l.SourceDir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no valid files found in %s", l.SourceDir)
	}
	return files, nil
}

func (l Layout) DefaultAttributes() map[string]string {
	return ReadJsonFile(filepath.Join(l.SourceDir, DEFAULT_ATTRIBUTES_FILE))
}

func (l Layout) DynamicProperties() map[string]string {
	return ReadJsonFile(filepath.Join(l.SourceDir, DYNAMIC_PROPERTIES_FILE))
}

func (l Layout) SpecificAttributes(file string) map[string]string {
	return ReadJsonFile(filepath.Join(l.SourceDir, filepath.Base(file)+ATTRIBUTES_SUFFIX))
}

func logMap(msg string, m map[string]string) {
	logger.Info(msg, zap.Any("values", m))
}
