// Package webdeploy deploys a directory to an IIS web site through a web deployment engine.
//
// The Deployer bridges Settings to the engine: it translates them into option bundles, forwards the engine's
// trace events to the host logger, optionally brackets the deployment with an offline page and overlays the
// configured parameters before issuing a single sync.
package webdeploy

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/deployengine"
	"github.com/variantdev/webdeploy/pkg/telemetry"
	"k8s.io/klog/klogr"
)

type Deployer struct {
	Engine deployengine.Engine

	Logger logr.Logger
	Host   HostLogger

	// TempDir is where the offline page is written before it is synced. Defaults to os.TempDir().
	TempDir string

	Metrics *telemetry.Metrics

	fs vfs.FS
}

// Result is the outcome of a tolerant deployment.
type Result struct {
	// ExitStatus is 0 on success and 1 on failure
	ExitStatus int
	Summary    *deployengine.ChangeSummary
}

func (r Result) Succeeded() bool {
	return r.ExitStatus == 0
}

type Option interface {
	SetOption(d *Deployer) error
}

func Engine(e deployengine.Engine) Option {
	return &engineOption{e: e}
}

type engineOption struct {
	e deployengine.Engine
}

func (s *engineOption) SetOption(d *Deployer) error {
	d.Engine = s.e
	return nil
}

func FS(fs vfs.FS) Option {
	return &fsOption{f: fs}
}

type fsOption struct {
	f vfs.FS
}

func (s *fsOption) SetOption(d *Deployer) error {
	d.fs = s.f
	return nil
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (s *loggerOption) SetOption(d *Deployer) error {
	d.Logger = s.l
	return nil
}

// Host sets where the engine's trace events go. Defaults to KlogHost.
func Host(h HostLogger) Option {
	return &hostOption{h: h}
}

type hostOption struct {
	h HostLogger
}

func (s *hostOption) SetOption(d *Deployer) error {
	d.Host = s.h
	return nil
}

func TempDir(dir string) Option {
	return &tempDirOption{d: dir}
}

type tempDirOption struct {
	d string
}

func (s *tempDirOption) SetOption(d *Deployer) error {
	d.TempDir = s.d
	return nil
}

func Metrics(m *telemetry.Metrics) Option {
	return &metricsOption{m: m}
}

type metricsOption struct {
	m *telemetry.Metrics
}

func (s *metricsOption) SetOption(d *Deployer) error {
	d.Metrics = s.m
	return nil
}

func New(opts ...Option) (*Deployer, error) {
	d := &Deployer{}

	for _, o := range opts {
		if err := o.SetOption(d); err != nil {
			return nil, err
		}
	}

	if d.Engine == nil {
		return nil, fmt.Errorf("webdeploy: deployment engine is required")
	}

	if d.fs == nil {
		d.fs = vfs.HostOSFS
	}

	if d.Logger == nil {
		d.Logger = klogr.New()
	}

	if d.Host == nil {
		d.Host = KlogHost{}
	}

	if d.TempDir == "" {
		d.TempDir = os.TempDir()
	}

	return d, nil
}

// Deploy syncs the source directory to the site and returns what changed. Any failure is returned as an *Error.
func (d *Deployer) Deploy(s Settings) (*deployengine.ChangeSummary, error) {
	return d.deploy(s)
}

// Run is Deploy in tolerant mode: a failing sync is reported as ExitStatus 1 instead of an error.
// Configuration, staging and unstaging failures are still returned.
func (d *Deployer) Run(s Settings) (Result, error) {
	summary, err := d.deploy(s)

	switch {
	case err == nil:
		return Result{Summary: summary}, nil
	case KindOf(err) == KindSync:
		d.Logger.V(1).Info("tolerating sync failure", "site", s.SiteName, "error", err.Error())
		return Result{ExitStatus: 1}, nil
	}

	return Result{ExitStatus: 1, Summary: summary}, err
}

func (d *Deployer) deploy(s Settings) (summary *deployengine.ChangeSummary, err error) {
	if err := s.Validate(d.fs); err != nil {
		return nil, err
	}

	source, dest, sync, err := Translate(s, d.Engine)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger := d.Logger.WithValues("deployment", id, "site", s.SiteName)

	logger.V(1).Info("deploying", "settings", s.String())

	if d.Metrics != nil {
		start := time.Now()
		d.Metrics.DeploymentStarted(s.SiteName)
		defer func() {
			status := telemetry.StatusSuccess
			if err != nil {
				status = telemetry.StatusFailure
			}
			d.Metrics.DeploymentHandled(s.SiteName, start, time.Now(), status)
		}()
	}

	guard := d.newGuard(s, sync)
	guard.logger = logger

	if err := guard.Stage(); err != nil {
		return nil, err
	}

	// Released even when the sync panics. A release failure never masks a sync failure.
	synced := false
	defer func() {
		relErr := guard.Release()
		switch {
		case relErr == nil:
		case !synced || err != nil:
			d.Host.Error(relErr.Error())
		case s.UnstageFailure == UnstageWarn:
			d.Host.Warning(relErr.Error())
		default:
			err = relErr
		}
		if synced && err == nil {
			logger.V(1).Info("deployed", "summary", summary.String())
		}
	}()

	summary, err = d.sync(s, source, dest, sync, logger)
	synced = true

	return summary, err
}

func (d *Deployer) sync(s Settings, source, dest *deployengine.BaseOptions, sync *deployengine.SyncOptions, logger logr.Logger) (*deployengine.ChangeSummary, error) {
	obj, err := d.Engine.CreateObject(deployengine.IisApp, s.SourcePath, source)
	if err != nil {
		return nil, &Error{Kind: KindSync, Op: "creating deployment object", Err: err}
	}
	defer obj.Close()

	if err := ApplyParameters(s.Parameters, obj.SyncParameters()); err != nil {
		return nil, &Error{Kind: KindConfiguration, Err: err}
	}

	Forward(dest, d.Host)

	logger.V(2).Info("syncing", "source", s.SourcePath, "target", s.TargetPath(), "rules", len(sync.Rules))

	summary, err := obj.SyncTo(deployengine.IisApp, s.TargetPath(), dest, sync)
	if err != nil {
		return nil, &Error{Kind: KindSync, Op: "syncing " + s.TargetPath(), Err: err}
	}

	if summary == nil {
		summary = &deployengine.ChangeSummary{}
	}

	return summary, nil
}
