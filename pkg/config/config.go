// Package config loads deployment settings from a YAML file.
//
// String values may reference the environment with {{ env "NAME" }}, so that secrets such as the publish
// password stay out of the file. The file is validated against a JSON schema before it is decoded.
package config

import (
	"fmt"
	"strings"

	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/tmpl"
	"github.com/variantdev/webdeploy/pkg/webdeploy"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const (
	EngineMSDeploy = "msdeploy"
	EngineLocal    = "local"
)

type File struct {
	PublishURL      string            `yaml:"publishUrl"`
	Username        string            `yaml:"username"`
	Password        string            `yaml:"password"`
	SiteName        string            `yaml:"siteName"`
	SourcePath      string            `yaml:"sourcePath"`
	DestinationPath string            `yaml:"destinationPath"`
	Parameters      map[string]string `yaml:"parameters"`

	EnableDoNotDeleteRule *bool `yaml:"enableDoNotDeleteRule"`
	EnableAppOfflineRule  *bool `yaml:"enableAppOfflineRule"`
	ShowWhatIf            *bool `yaml:"showWhatIf"`
	RetryAttempts         *int  `yaml:"retryAttempts"`
	RetryInterval         *int  `yaml:"retryInterval"`
	WrapAppOffline        *bool `yaml:"wrapAppOffline"`

	AppOfflineHTMLTemplate    string            `yaml:"appOfflineHtmlTemplate"`
	AppOfflineTemplateURL     string            `yaml:"appOfflineTemplateUrl"`
	AppOfflineTemplateHeaders map[string]string `yaml:"appOfflineTemplateHeaders"`

	UnstageFailure string `yaml:"unstageFailure"`
	Tolerant       *bool  `yaml:"tolerant"`

	Engine  Engine  `yaml:"engine"`
	Metrics Metrics `yaml:"metrics"`
}

type Engine struct {
	Kind      string `yaml:"kind"`
	Path      string `yaml:"path"`
	Version   string `yaml:"version"`
	Verbose   bool   `yaml:"verbose"`
	LocalRoot string `yaml:"localRoot"`
}

type Metrics struct {
	PushURL   string `yaml:"pushUrl"`
	Job       string `yaml:"job"`
	Histogram bool   `yaml:"histogram"`
}

// Load reads, renders and validates the file at path.
func Load(fs vfs.FS, path string) (*File, error) {
	bs, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return Parse(path, bs)
}

func Parse(name string, bs []byte) (*File, error) {
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(bs, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	rendered, err := tmpl.RenderArgs(values, map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}

	if err := validate(name, rendered); err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(rendered)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}

	f := &File{}
	if err := yaml.Unmarshal(out, f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	return f, nil
}

func validate(name string, values map[string]interface{}) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaJSON), gojsonschema.NewGoLoader(values))
	if err != nil {
		return fmt.Errorf("validating %s: %w", name, err)
	}

	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return fmt.Errorf("invalid config %s:\n%s", name, strings.Join(msgs, "\n"))
}

// Apply overrides s with every value set in the file.
func (f *File) Apply(s webdeploy.Settings) (webdeploy.Settings, error) {
	setString := func(v string, with func(string) webdeploy.Settings) {
		if v != "" {
			s = with(v)
		}
	}

	setString(f.PublishURL, s.WithPublishURL)
	setString(f.Username, s.WithUsername)
	setString(f.Password, s.WithPassword)
	setString(f.SiteName, s.WithSiteName)
	setString(f.SourcePath, s.WithSourcePath)
	setString(f.DestinationPath, s.WithDestinationPath)
	setString(f.AppOfflineHTMLTemplate, s.WithAppOfflineHTMLTemplate)

	if f.EnableDoNotDeleteRule != nil {
		s = s.WithDoNotDeleteRule(*f.EnableDoNotDeleteRule)
	}
	if f.EnableAppOfflineRule != nil {
		s = s.WithAppOfflineRule(*f.EnableAppOfflineRule)
	}
	if f.ShowWhatIf != nil {
		s = s.WithWhatIf(*f.ShowWhatIf)
	}
	if f.RetryAttempts != nil {
		s = s.WithRetryAttempts(*f.RetryAttempts)
	}
	if f.RetryInterval != nil {
		s = s.WithRetryInterval(*f.RetryInterval)
	}
	if f.WrapAppOffline != nil {
		s = s.WithWrapAppOffline(*f.WrapAppOffline)
	}

	if f.UnstageFailure != "" {
		p, err := webdeploy.ParseUnstagePolicy(f.UnstageFailure)
		if err != nil {
			return s, err
		}
		s = s.WithUnstageFailure(p)
	}

	if len(f.Parameters) > 0 {
		s = s.WithParameters(f.Parameters)
	}

	return s, nil
}
