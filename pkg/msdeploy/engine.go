// Package msdeploy implements deployengine.Engine on top of the msdeploy command line tool shipped with
// Microsoft Web Deploy.
package msdeploy

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/deployengine"
	"github.com/variantdev/webdeploy/pkg/shell"
	"k8s.io/klog/klogr"
)

const (
	DefaultPath    = "msdeploy"
	DefaultVersion = "3.6"
)

type Engine struct {
	Path    string
	Version string
	Verbose bool

	Logger logr.Logger

	sh *shell.Shell
	fs vfs.FS
}

func New(opts ...Option) (*Engine, error) {
	e := &Engine{}

	for _, o := range opts {
		if err := o.SetOption(e); err != nil {
			return nil, err
		}
	}

	if e.Path == "" {
		e.Path = DefaultPath
	}

	if e.Version == "" {
		e.Version = DefaultVersion
	}

	if e.Logger == nil {
		e.Logger = klogr.New()
	}

	if e.sh == nil {
		e.sh = shell.New()
	}

	if e.fs == nil {
		e.fs = vfs.HostOSFS
	}

	e.Logger.V(1).Info("init", "path", e.Path, "version", e.Version)

	return e, nil
}

func (e *Engine) AvailableRules() ([]deployengine.Rule, error) {
	return availableRules(e.Version)
}

func (e *Engine) CreateObject(kind deployengine.ProviderKind, path string, opts *deployengine.BaseOptions) (deployengine.Object, error) {
	obj := &object{
		engine: e,
		kind:   kind,
		path:   path,
		opts:   opts,
		native: map[string]bool{},
	}

	if kind == deployengine.IisApp {
		file, params, err := loadDeclaredParameters(e.fs, path)
		if err != nil {
			return nil, fmt.Errorf("creating deployment object for %s=%s: %w", kind, path, err)
		}

		obj.declareParamFile = file
		obj.params = params
	} else {
		obj.params, _ = deployengine.NewSyncParameters()
	}

	for _, p := range obj.params.All() {
		obj.native[strings.ToLower(p.Name)] = true
	}

	return obj, nil
}

type object struct {
	engine *Engine

	kind deployengine.ProviderKind
	path string
	opts *deployengine.BaseOptions

	declareParamFile string
	params           *deployengine.SyncParameters
	native           map[string]bool
}

func (o *object) SyncParameters() *deployengine.SyncParameters {
	return o.params
}

func (o *object) SyncTo(kind deployengine.ProviderKind, path string, dest *deployengine.BaseOptions, opts *deployengine.SyncOptions) (*deployengine.ChangeSummary, error) {
	inv := &invocation{
		sourceKind:       o.kind,
		sourcePath:       o.path,
		source:           o.opts,
		destKind:         kind,
		destPath:         path,
		dest:             dest,
		sync:             opts,
		declareParamFile: o.declareParamFile,
		verbose:          o.engine.Verbose,
	}

	for _, p := range o.params.All() {
		if !o.native[strings.ToLower(p.Name)] {
			inv.declared = append(inv.declared, p)
		}
		if p.HasValue {
			inv.params = append(inv.params, p)
		}
	}

	o.engine.Logger.V(1).Info("msdeploy", "args", strings.Join(inv.args(true), " "))

	var (
		summary   *deployengine.ChangeSummary
		lastError string
	)

	handle := func(stderr bool) func(string) {
		return func(line string) {
			if strings.TrimSpace(line) == "" {
				return
			}
			if s, ok := parseSummary(line); ok {
				summary = s
			}
			ev := parseLine(line, stderr)
			if ev.Level == deployengine.TraceError {
				lastError = ev.Message
			}
			dest.Trace(ev.Level, ev.Message)
		}
	}

	cmd := &shell.Command{
		Name: o.engine.Path,
		Args: inv.args(false),
	}

	res, err := o.engine.sh.Capture(cmd, shell.CaptureOpts{
		LogStdout: handle(false),
		LogStderr: handle(true),
	})
	if err != nil {
		if lastError != "" {
			return nil, fmt.Errorf("running msdeploy: %s: %w", lastError, err)
		}
		return nil, fmt.Errorf("running msdeploy: %w", err)
	}

	o.engine.Logger.V(2).Info("msdeploy.done", "exit", res.ExitStatus)

	if summary == nil {
		summary = &deployengine.ChangeSummary{}
	}

	return summary, nil
}

func (o *object) Close() error {
	return nil
}
