package cmd

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"
	"github.com/variantdev/webdeploy/pkg/config"
	"github.com/variantdev/webdeploy/pkg/vhttpget"
	"github.com/variantdev/webdeploy/pkg/webdeploy"
	"k8s.io/klog/klogr"
)

const publishURL = "https://example.scm.azurewebsites.net:443/msdeploy.axd?site=example"

type nopHost struct{}

func (nopHost) Error(string)   {}
func (nopHost) Warning(string) {}
func (nopHost) Info(string)    {}
func (nopHost) Verbose(string) {}

func newTestApp(fs vfs.FS, getter vhttpget.Getter) (*app, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &app{
		fs:     fs,
		getter: getter,
		logger: klogr.New(),
		host:   nopHost{},
		out:    out,
	}, out
}

func execute(a *app, args ...string) error {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOutput(ioutil.Discard)
	return cmd.Execute()
}

func localSyncArgs(extra ...string) []string {
	return append([]string{
		"sync",
		"--engine", "local",
		"--local-root", "/www",
		"--publish-url", publishURL,
		"-u", "u",
		"-p", "p",
		"--site-name", "example",
		"--source-path", "/src",
		"--temp-dir", "/tmp/webdeploy",
		"--retry-attempts", "0",
	}, extra...)
}

func readString(t *testing.T, fs vfs.FS, path string) string {
	t.Helper()

	bs, err := fs.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	return string(bs)
}

func assertNotExist(t *testing.T, fs vfs.FS, path string) {
	t.Helper()

	if _, err := fs.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist: %v", path, err)
	}
}

func TestSync_Local(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/src/index.html":        "new",
		"/www/example/stale.txt": "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	a, out := newTestApp(fs, vhttpget.NewTester(nil))

	if err := execute(a, localSyncArgs("--wrap-app-offline")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := readString(t, fs, "/www/example/index.html"); got != "new" {
		t.Errorf("unexpected content: %q", got)
	}

	assertNotExist(t, fs, "/www/example/stale.txt")
	assertNotExist(t, fs, "/www/example/app_offline.htm")

	if !strings.Contains(out.String(), "Total changes: 2 (1 added, 1 deleted") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestSync_SyncFailure(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/src/index.html": "new",
		"/www/example":    "a file where the site should be",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	a, _ := newTestApp(fs, vhttpget.NewTester(nil))

	err = execute(a, localSyncArgs()...)
	if !errors.Is(err, webdeploy.ErrSync) {
		t.Errorf("expected a sync error, got %v", err)
	}

	err = execute(a, localSyncArgs("--tolerant")...)

	var exit *exitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected an exit status, got %v", err)
	}

	if exit.status != 1 {
		t.Errorf("unexpected exit status: %d", exit.status)
	}
}

func TestSync_ConfigurationError(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/src/index.html": "new",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	a, _ := newTestApp(fs, vhttpget.NewTester(nil))

	err = execute(a, localSyncArgs("--tolerant", "--source-path", "/missing")...)
	if !errors.Is(err, webdeploy.ErrConfiguration) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestSync_UnsupportedEngine(t *testing.T) {
	a, _ := newTestApp(vfs.HostOSFS, vhttpget.NewTester(nil))

	err := execute(a, "sync", "--engine", "ftp")
	if err == nil || !strings.Contains(err.Error(), `unsupported engine "ftp"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRules(t *testing.T) {
	a, out := newTestApp(vfs.HostOSFS, vhttpget.NewTester(nil))

	if err := execute(a, "rules", "--engine-version", "2.0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, l := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		names = append(names, strings.SplitN(l, "\t", 2)[0])
	}

	if diff := cmp.Diff([]string{"DoNotDeleteRule", "SkipNewerFilesRule"}, names); diff != "" {
		t.Errorf("unexpected rules: %s", diff)
	}
}

func TestTemplate(t *testing.T) {
	getter := vhttpget.NewTester(map[string]string{
		"https://example.com/offline.html": "<html>custom</html>",
	})

	a, out := newTestApp(vfs.HostOSFS, getter)

	if err := execute(a, "template"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != webdeploy.DefaultAppOfflineTemplate() {
		t.Errorf("expected the bundled template, got %q", out.String())
	}

	out.Reset()

	if err := execute(a, "template", "--app-offline-template-url", "https://example.com/offline.html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "<html>custom</html>" {
		t.Errorf("unexpected template: %q", out.String())
	}
}

func resolve(t *testing.T, a *app, args ...string) (*job, error) {
	t.Helper()

	f := &syncFlags{}
	eng := &engineFlags{}

	flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	f.register(flags)
	eng.register(flags)

	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}

	return a.resolve(flags, f, eng)
}

func TestResolve_ConfigPrecedence(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/webdeploy.yaml": `
publishUrl: https://other.scm.azurewebsites.net:443/msdeploy.axd?site=other
username: fromfile
siteName: other
retryAttempts: 2
wrapAppOffline: true
parameters:
  Environment: staging
appOfflineTemplateUrl: https://example.com/offline.html
tolerant: true
engine:
  kind: local
  localRoot: /www
metrics:
  pushUrl: http://pushgateway:9091
`,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	getter := vhttpget.NewTester(map[string]string{
		"https://example.com/offline.html": "<html>custom</html>",
	})

	a, _ := newTestApp(fs, getter)

	j, err := resolve(t, a,
		"--config", "/webdeploy.yaml",
		"--site-name", "example",
		"--retry-attempts", "4",
		"--param", "Environment=production",
		"--local-root", "/srv",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := j.settings

	if s.SiteName != "example" || s.Username != "fromfile" || s.RetryAttempts != 4 || !s.WrapAppOffline {
		t.Errorf("unexpected settings: %s", s)
	}

	if s.RetryInterval != webdeploy.DefaultRetryInterval {
		t.Errorf("unset flags must not override: %d", s.RetryInterval)
	}

	if diff := cmp.Diff(map[string]string{"Environment": "production"}, s.Parameters.Map()); diff != "" {
		t.Errorf("unexpected parameters: %s", diff)
	}

	if s.AppOfflineHTMLTemplate != "<html>custom</html>" {
		t.Errorf("unexpected template: %q", s.AppOfflineHTMLTemplate)
	}

	if diff := cmp.Diff(config.Engine{Kind: config.EngineLocal, LocalRoot: "/srv"}, j.engine); diff != "" {
		t.Errorf("unexpected engine: %s", diff)
	}

	if diff := cmp.Diff(config.Metrics{PushURL: "http://pushgateway:9091", Job: defaultMetricsJob}, j.metrics); diff != "" {
		t.Errorf("unexpected metrics: %s", diff)
	}

	if !j.tolerant {
		t.Errorf("expected tolerant mode from the config file")
	}
}

func TestResolve_Defaults(t *testing.T) {
	a, _ := newTestApp(vfs.HostOSFS, vhttpget.NewTester(nil))

	j, err := resolve(t, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(config.Engine{Kind: config.EngineMSDeploy}, j.engine); diff != "" {
		t.Errorf("unexpected engine: %s", diff)
	}

	if j.settings.AppOfflineHTMLTemplate != webdeploy.DefaultAppOfflineTemplate() || j.settings.RetryAttempts != webdeploy.DefaultRetryAttempts {
		t.Errorf("unexpected settings: %s", j.settings)
	}

	if j.tolerant {
		t.Errorf("unexpected tolerant mode")
	}
}

func TestResolve_UnstageFailure(t *testing.T) {
	a, _ := newTestApp(vfs.HostOSFS, vhttpget.NewTester(nil))

	j, err := resolve(t, a, "--unstage-failure", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if j.settings.UnstageFailure != webdeploy.UnstageWarn {
		t.Errorf("unexpected policy: %q", j.settings.UnstageFailure)
	}

	if _, err := resolve(t, a, "--unstage-failure", "ignore"); !errors.Is(err, webdeploy.ErrConfiguration) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestResolve_TemplateSources(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/offline.html": "<html>from file</html>",
		"/webdeploy.yaml": `
siteName: example
appOfflineTemplateUrl: https://example.com/offline.html
`,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	getter := vhttpget.NewTester(map[string]string{
		"https://example.com/offline.html": "<html>from url</html>",
	})

	a, _ := newTestApp(fs, getter)

	conflicts := [][]string{
		{"--app-offline-template", "<html>inline</html>", "--app-offline-template-file", "/offline.html"},
		{"--app-offline-template", "<html>inline</html>", "--app-offline-template-url", "https://example.com/offline.html"},
		{"--app-offline-template-file", "/offline.html", "--app-offline-template-url", "https://example.com/offline.html"},
	}

	for _, args := range conflicts {
		if _, err := resolve(t, a, args...); !errors.Is(err, webdeploy.ErrConfiguration) {
			t.Errorf("%v: expected a configuration error, got %v", args, err)
		}
	}

	testcases := []struct {
		args []string
		want string
	}{
		{args: []string{"--config", "/webdeploy.yaml"}, want: "<html>from url</html>"},
		{args: []string{"--config", "/webdeploy.yaml", "--app-offline-template", "<html>inline</html>"}, want: "<html>inline</html>"},
		{args: []string{"--config", "/webdeploy.yaml", "--app-offline-template-file", "/offline.html"}, want: "<html>from file</html>"},
	}

	for _, tc := range testcases {
		j, err := resolve(t, a, tc.args...)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tc.args, err)
		}

		if j.settings.AppOfflineHTMLTemplate != tc.want {
			t.Errorf("%v: unexpected template: %q", tc.args, j.settings.AppOfflineHTMLTemplate)
		}
	}
}
