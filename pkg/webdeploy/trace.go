package webdeploy

import (
	"github.com/variantdev/webdeploy/pkg/deployengine"
	"k8s.io/klog"
)

// HostLogger is the build system's logger the engine's trace events end up in.
type HostLogger interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Verbose(msg string)
}

// KlogHost writes to klog. Verbose messages need -v=1 or higher.
type KlogHost struct{}

func (KlogHost) Error(msg string) {
	klog.Error(msg)
}

func (KlogHost) Warning(msg string) {
	klog.Warning(msg)
}

func (KlogHost) Info(msg string) {
	klog.Info(msg)
}

func (KlogHost) Verbose(msg string) {
	klog.V(1).Info(msg)
}

// Forward subscribes host to the trace events raised on opts.
func Forward(opts *deployengine.BaseOptions, host HostLogger) {
	opts.OnTrace(func(ev deployengine.TraceEvent) {
		switch ev.Level {
		case deployengine.TraceError:
			host.Error(ev.Message)
		case deployengine.TraceWarning:
			host.Warning(ev.Message)
		case deployengine.TraceInfo:
			host.Info(ev.Message)
		case deployengine.TraceVerbose:
			host.Verbose(ev.Message)
		}
	})
}
