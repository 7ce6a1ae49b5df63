package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/variantdev/webdeploy/pkg/config"
	"github.com/variantdev/webdeploy/pkg/telemetry"
	"github.com/variantdev/webdeploy/pkg/webdeploy"
)

const defaultMetricsJob = "webdeploy"

type syncFlags struct {
	configFile string

	publishURL      string
	username        string
	password        string
	siteName        string
	sourcePath      string
	destinationPath string
	params          map[string]string

	doNotDelete    bool
	appOfflineRule bool
	whatIf         bool
	retryAttempts  int
	retryInterval  int
	wrapAppOffline bool

	template        string
	templateFile    string
	templateURL     string
	templateHeaders map[string]string

	unstageFailure string
	tolerant       bool
	tempDir        string

	metricsPushURL   string
	metricsJob       string
	metricsHistogram bool
}

func (f *syncFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "YAML file to read settings from. Flags given on the command line take precedence")

	fs.StringVar(&f.publishURL, "publish-url", "", "Web Deploy endpoint, e.g. https://example.scm.azurewebsites.net:443/msdeploy.axd?site=example")
	fs.StringVarP(&f.username, "username", "u", "", "User name for basic authentication")
	fs.StringVarP(&f.password, "password", "p", "", "Password for basic authentication")
	fs.StringVar(&f.siteName, "site-name", "", "Name of the site to deploy to")
	fs.StringVar(&f.sourcePath, "source-path", "", "Local directory to deploy")
	fs.StringVar(&f.destinationPath, "destination-path", "", "iisApp path to deploy to. Defaults to the site name")
	fs.StringToStringVar(&f.params, "param", nil, "Parameter to set, as NAME=VALUE. Can be repeated")

	fs.BoolVar(&f.doNotDelete, "do-not-delete", false, "Keep files on the destination that are not in the source")
	fs.BoolVar(&f.appOfflineRule, "app-offline-rule", false, "Enable the engine's AppOffline rule")
	fs.BoolVar(&f.whatIf, "what-if", false, "Report what would change without changing anything")
	fs.IntVar(&f.retryAttempts, "retry-attempts", webdeploy.DefaultRetryAttempts, "Number of times the engine retries a failed operation")
	fs.IntVar(&f.retryInterval, "retry-interval", webdeploy.DefaultRetryInterval, "Milliseconds between retries")
	fs.BoolVar(&f.wrapAppOffline, "wrap-app-offline", false, "Place app_offline.htm before the deployment and remove it afterwards")

	fs.StringVar(&f.template, "app-offline-template", "", "HTML of the offline page")
	fs.StringVar(&f.templateFile, "app-offline-template-file", "", "File to read the HTML of the offline page from")
	fs.StringVar(&f.templateURL, "app-offline-template-url", "", "URL to fetch the HTML of the offline page from")
	fs.StringToStringVar(&f.templateHeaders, "app-offline-template-header", nil, "HTTP header to send when fetching the offline page, as NAME=VALUE")

	fs.StringVar(&f.unstageFailure, "unstage-failure", string(webdeploy.UnstagePropagate), `What to do when the offline page cannot be removed: "propagate" fails the deployment, "warn" logs a warning`)
	fs.BoolVar(&f.tolerant, "tolerant", false, "Exit with status 1 instead of an error when the sync fails")
	fs.StringVar(&f.tempDir, "temp-dir", "", "Directory to write the offline page to before it is synced. Defaults to the system temp directory")

	fs.StringVar(&f.metricsPushURL, "metrics-push-url", "", "Prometheus push gateway to push deployment metrics to")
	fs.StringVar(&f.metricsJob, "metrics-job", defaultMetricsJob, "Job name of the pushed metrics")
	fs.BoolVar(&f.metricsHistogram, "metrics-histogram", false, "Also push a deployment duration histogram")
}

// job is what a sync command resolved from the config file and the flags.
type job struct {
	settings webdeploy.Settings
	engine   config.Engine
	metrics  config.Metrics
	tolerant bool
}

func (a *app) newSyncCmd(eng *engineFlags) *cobra.Command {
	f := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the source directory to the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.resolve(cmd.Flags(), f, eng)
			if err != nil {
				return err
			}

			return a.runSync(j, f.tempDir)
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func (a *app) resolve(flags *pflag.FlagSet, f *syncFlags, eng *engineFlags) (*job, error) {
	j := &job{settings: webdeploy.NewSettings()}

	file := &config.File{}
	if f.configFile != "" {
		var err error
		file, err = config.Load(a.fs, f.configFile)
		if err != nil {
			return nil, err
		}

		j.settings, err = file.Apply(j.settings)
		if err != nil {
			return nil, err
		}

		if file.Tolerant != nil {
			j.tolerant = *file.Tolerant
		}
	}

	j.engine = eng.merge(file.Engine)

	j.metrics = file.Metrics
	if j.metrics.PushURL == "" || flags.Changed("metrics-push-url") {
		j.metrics.PushURL = f.metricsPushURL
	}
	if j.metrics.Job == "" || flags.Changed("metrics-job") {
		j.metrics.Job = f.metricsJob
	}
	if flags.Changed("metrics-histogram") {
		j.metrics.Histogram = f.metricsHistogram
	}

	if flags.Changed("tolerant") {
		j.tolerant = f.tolerant
	}

	s := j.settings

	overrides := []struct {
		flag  string
		apply func() webdeploy.Settings
	}{
		{"publish-url", func() webdeploy.Settings { return s.WithPublishURL(f.publishURL) }},
		{"username", func() webdeploy.Settings { return s.WithUsername(f.username) }},
		{"password", func() webdeploy.Settings { return s.WithPassword(f.password) }},
		{"site-name", func() webdeploy.Settings { return s.WithSiteName(f.siteName) }},
		{"source-path", func() webdeploy.Settings { return s.WithSourcePath(f.sourcePath) }},
		{"destination-path", func() webdeploy.Settings { return s.WithDestinationPath(f.destinationPath) }},
		{"param", func() webdeploy.Settings { return s.WithParameters(f.params) }},
		{"do-not-delete", func() webdeploy.Settings { return s.WithDoNotDeleteRule(f.doNotDelete) }},
		{"app-offline-rule", func() webdeploy.Settings { return s.WithAppOfflineRule(f.appOfflineRule) }},
		{"what-if", func() webdeploy.Settings { return s.WithWhatIf(f.whatIf) }},
		{"retry-attempts", func() webdeploy.Settings { return s.WithRetryAttempts(f.retryAttempts) }},
		{"retry-interval", func() webdeploy.Settings { return s.WithRetryInterval(f.retryInterval) }},
		{"wrap-app-offline", func() webdeploy.Settings { return s.WithWrapAppOffline(f.wrapAppOffline) }},
		{"app-offline-template", func() webdeploy.Settings { return s.WithAppOfflineHTMLTemplate(f.template) }},
	}

	for _, o := range overrides {
		if flags.Changed(o.flag) {
			s = o.apply()
		}
	}

	if flags.Changed("unstage-failure") {
		p, err := webdeploy.ParseUnstagePolicy(f.unstageFailure)
		if err != nil {
			return nil, err
		}
		s = s.WithUnstageFailure(p)
	}

	var sources []string
	for _, name := range []string{"app-offline-template", "app-offline-template-file", "app-offline-template-url"} {
		if flags.Changed(name) {
			sources = append(sources, "--"+name)
		}
	}
	if len(sources) > 1 {
		return nil, &webdeploy.Error{
			Kind: webdeploy.KindConfiguration,
			Err:  fmt.Errorf("only one of --app-offline-template, --app-offline-template-file and --app-offline-template-url may be given, got %s", strings.Join(sources, " and ")),
		}
	}

	// A template URL from the config file gives way to any template flag
	templateURL, headers := file.AppOfflineTemplateURL, file.AppOfflineTemplateHeaders
	if len(sources) > 0 {
		templateURL = ""
	}
	if flags.Changed("app-offline-template-url") {
		templateURL = f.templateURL
	}
	if flags.Changed("app-offline-template-header") {
		headers = f.templateHeaders
	}

	switch {
	case f.templateFile != "":
		bs, err := a.fs.ReadFile(f.templateFile)
		if err != nil {
			return nil, fmt.Errorf("reading offline page template: %w", err)
		}
		s = s.WithAppOfflineHTMLTemplate(string(bs))
	case templateURL != "":
		html, err := a.fetchTemplate(templateURL, headers)
		if err != nil {
			return nil, err
		}
		s = s.WithAppOfflineHTMLTemplate(html)
	}

	j.settings = s

	return j, nil
}

func (a *app) runSync(j *job, tempDir string) error {
	e, err := a.newEngine(j.engine)
	if err != nil {
		return err
	}

	opts := []webdeploy.Option{
		webdeploy.Engine(e),
		webdeploy.FS(a.fs),
		webdeploy.Logger(a.logger),
		webdeploy.Host(a.host),
	}

	if tempDir != "" {
		opts = append(opts, webdeploy.TempDir(tempDir))
	}

	var metrics *telemetry.Metrics
	if j.metrics.PushURL != "" {
		metrics = telemetry.NewMetrics("webdeploy")
		if j.metrics.Histogram {
			metrics.EnableHandlingTimeHistogram()
		}
		opts = append(opts, webdeploy.Metrics(metrics))
	}

	d, err := webdeploy.New(opts...)
	if err != nil {
		return err
	}

	defer func() {
		if metrics == nil {
			return
		}
		if err := metrics.Push(j.metrics.PushURL, j.metrics.Job); err != nil {
			a.logger.Error(err, "pushing metrics", "url", j.metrics.PushURL)
		}
	}()

	if !j.tolerant {
		summary, err := d.Deploy(j.settings)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, summary)
		return nil
	}

	r, err := d.Run(j.settings)
	if err != nil {
		return err
	}

	if r.Summary != nil {
		fmt.Fprintln(a.out, r.Summary)
	}

	if !r.Succeeded() {
		return &exitError{status: r.ExitStatus}
	}

	return nil
}
