package script

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const BUNDLED_SCRIPT_NAME string = "script.js"

//go:embed resources/script.js
var bundledScript string

type Script struct {
	Name string
	Code string
}

// Source yields the script to run. Sources are consulted on every trigger.
type Source interface {
	Load(ctx context.Context) (*Script, error)
}

type FileSource struct {
	path string
}

var _ Source = new(FileSource)

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (fs *FileSource) Load(ctx context.Context) (*Script, error) {
	code, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("error reading script %s: %w", fs.path, err)
	}
	return &Script{Name: filepath.Base(fs.path), Code: string(code)}, nil
}

// BundledSource serves the script compiled into the binary.
type BundledSource struct{}

var _ Source = BundledSource{}

func (BundledSource) Load(ctx context.Context) (*Script, error) {
	return &Script{Name: BUNDLED_SCRIPT_NAME, Code: bundledScript}, nil
}

// StringSource serves a fixed script held in memory.
type StringSource struct {
	Script
}

var _ Source = new(StringSource)

func NewStringSource(name string, code string) *StringSource {
	return &StringSource{Script: Script{Name: name, Code: code}}
}

func (ss *StringSource) Load(ctx context.Context) (*Script, error) {
	s := ss.Script
	return &s, nil
}
