// Package localengine implements deployengine.Engine by synchronizing into a directory tree on a vfs.FS.
//
// It mirrors the msdeploy semantics webdeploy relies on closely enough to deploy to a local IIS content
// directory or a mounted share, and to exercise deployments end to end without Web Deploy installed.
package localengine

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/deployengine"
	"k8s.io/klog/klogr"
)

// AppOfflineFileName is what the AppOffline rule places in the destination root during a sync.
const AppOfflineFileName = "app_offline.htm"

var rules = []deployengine.Rule{
	{Name: "AppOffline", Description: "Places app_offline.htm in the destination root for the duration of the sync"},
	{Name: "DoNotDeleteRule", Description: "Blocks deletions of objects on the destination"},
}

type Engine struct {
	// Root is the directory destination paths are resolved against
	Root string

	Logger logr.Logger

	fs    vfs.FS
	sleep func(time.Duration)
}

type Option interface {
	SetOption(e *Engine) error
}

func Root(dir string) Option {
	return &rootOption{d: dir}
}

type rootOption struct {
	d string
}

func (s *rootOption) SetOption(e *Engine) error {
	e.Root = s.d
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

func New(opts ...Option) (*Engine, error) {
	e := &Engine{}

	for _, o := range opts {
		if err := o.SetOption(e); err != nil {
			return nil, err
		}
	}

	if e.Root == "" {
		return nil, fmt.Errorf("local engine: root directory is required")
	}

	if e.fs == nil {
		e.fs = vfs.HostOSFS
	}

	if e.Logger == nil {
		e.Logger = klogr.New()
	}

	if e.sleep == nil {
		e.sleep = time.Sleep
	}

	return e, nil
}

func (e *Engine) AvailableRules() ([]deployengine.Rule, error) {
	return append([]deployengine.Rule(nil), rules...), nil
}

func (e *Engine) CreateObject(kind deployengine.ProviderKind, path string, opts *deployengine.BaseOptions) (deployengine.Object, error) {
	fi, err := e.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("creating deployment object for %s=%s: %w", kind, path, err)
	}

	if kind == deployengine.IisApp && !fi.IsDir() {
		return nil, fmt.Errorf("creating deployment object for %s=%s: not a directory", kind, path)
	}

	params, _ := deployengine.NewSyncParameters()

	return &object{engine: e, kind: kind, path: path, isDir: fi.IsDir(), params: params}, nil
}
