package msdeploy

import (
	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/shell"
)

type Option interface {
	SetOption(e *Engine) error
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(e *Engine) error {
	e.Logger = s.l
	return nil
}

func FS(fs vfs.FS) Option {
	return &fsOption{f: fs}
}

type fsOption struct {
	f vfs.FS
}

func (s *fsOption) SetOption(e *Engine) error {
	e.fs = s.f
	return nil
}

// Exec replaces the function used to run msdeploy, e.g. with shell.NewFake in tests.
func Exec(exec shell.Exec) Option {
	return &execOption{x: exec}
}

type execOption struct {
	x shell.Exec
}

func (s *execOption) SetOption(e *Engine) error {
	e.sh = &shell.Shell{Exec: s.x}
	return nil
}

// Path sets the msdeploy executable. Defaults to "msdeploy" looked up from PATH.
func Path(path string) Option {
	return &pathOption{p: path}
}

type pathOption struct {
	p string
}

func (s *pathOption) SetOption(e *Engine) error {
	e.Path = s.p
	return nil
}

// Version is the installed Web Deploy version. It decides which rules are available.
func Version(v string) Option {
	return &versionOption{v: v}
}

type versionOption struct {
	v string
}

func (s *versionOption) SetOption(e *Engine) error {
	e.Version = s.v
	return nil
}

// Verbose makes msdeploy emit verbose trace events.
func Verbose(v bool) Option {
	return &verboseOption{v: v}
}

type verboseOption struct {
	v bool
}

func (s *verboseOption) SetOption(e *Engine) error {
	e.Verbose = s.v
	return nil
}
