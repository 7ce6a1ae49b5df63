package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/variantdev/webdeploy/pkg/config"
	"github.com/variantdev/webdeploy/pkg/deployengine"
	"github.com/variantdev/webdeploy/pkg/localengine"
	"github.com/variantdev/webdeploy/pkg/msdeploy"
)

type engineFlags struct {
	flags *pflag.FlagSet

	kind      string
	path      string
	version   string
	verbose   bool
	localRoot string
}

func (f *engineFlags) register(fs *pflag.FlagSet) {
	f.flags = fs

	fs.StringVar(&f.kind, "engine", config.EngineMSDeploy, `Deployment engine: "msdeploy" runs the msdeploy command, "local" syncs into --local-root`)
	fs.StringVar(&f.path, "msdeploy-path", "", "Path to the msdeploy executable. Defaults to msdeploy from PATH")
	fs.StringVar(&f.version, "engine-version", "", "Installed Web Deploy version, used to decide which rules are available")
	fs.BoolVar(&f.verbose, "engine-verbose", false, "Make the engine emit verbose trace events")
	fs.StringVar(&f.localRoot, "local-root", "", "Directory the local engine resolves site paths against")
}

func (f *engineFlags) options() config.Engine {
	return config.Engine{
		Kind:      f.kind,
		Path:      f.path,
		Version:   f.version,
		Verbose:   f.verbose,
		LocalRoot: f.localRoot,
	}
}

// merge returns the file's engine settings overridden by the flags given on the command line.
func (f *engineFlags) merge(file config.Engine) config.Engine {
	r := file

	if r.Kind == "" || f.flags.Changed("engine") {
		r.Kind = f.kind
	}
	if f.flags.Changed("msdeploy-path") {
		r.Path = f.path
	}
	if f.flags.Changed("engine-version") {
		r.Version = f.version
	}
	if f.flags.Changed("engine-verbose") {
		r.Verbose = f.verbose
	}
	if f.flags.Changed("local-root") {
		r.LocalRoot = f.localRoot
	}

	return r
}

func (a *app) newEngine(c config.Engine) (deployengine.Engine, error) {
	switch c.Kind {
	case "", config.EngineMSDeploy:
		opts := []msdeploy.Option{
			msdeploy.Logger(a.logger),
			msdeploy.FS(a.fs),
			msdeploy.Verbose(c.Verbose),
		}
		if c.Path != "" {
			opts = append(opts, msdeploy.Path(c.Path))
		}
		if c.Version != "" {
			opts = append(opts, msdeploy.Version(c.Version))
		}
		if a.exec != nil {
			opts = append(opts, msdeploy.Exec(a.exec))
		}
		return msdeploy.New(opts...)
	case config.EngineLocal:
		return localengine.New(
			localengine.Root(c.LocalRoot),
			localengine.FS(a.fs),
			localengine.Logger(a.logger),
		)
	}

	return nil, fmt.Errorf("unsupported engine %q: must be one of %q or %q", c.Kind, config.EngineMSDeploy, config.EngineLocal)
}
