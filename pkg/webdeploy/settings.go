package webdeploy

import (
	"fmt"
	"os"
	"strings"

	"github.com/twpayne/go-vfs"
)

const (
	DefaultRetryAttempts = 5
	// DefaultRetryInterval is in milliseconds
	DefaultRetryInterval = 5000
)

// UnstagePolicy decides what happens when the offline page cannot be removed after the main sync.
type UnstagePolicy string

const (
	// UnstagePropagate returns the failure to the caller
	UnstagePropagate UnstagePolicy = "propagate"
	// UnstageWarn logs the failure as a warning and reports the deployment by the outcome of the main sync
	UnstageWarn UnstagePolicy = "warn"
)

func ParseUnstagePolicy(s string) (UnstagePolicy, error) {
	switch p := UnstagePolicy(strings.ToLower(s)); p {
	case "", UnstagePropagate:
		return UnstagePropagate, nil
	case UnstageWarn:
		return UnstageWarn, nil
	}
	return "", configErrorf("unsupported unstage failure policy %q: must be one of %q or %q", s, UnstagePropagate, UnstageWarn)
}

// Settings describes one deployment.
//
// Settings is a value: every With method returns a modified copy, so a Settings can be shared and derived
// from freely.
type Settings struct {
	// PublishURL should carry the site query parameter, e.g. https://appname.scm.azurewebsites.net:443/msdeploy.axd?site=appname
	PublishURL string
	// Username and Password authenticate via http basic authentication
	Username string
	Password string

	SiteName string
	// SourcePath is the local directory to deploy
	SourcePath string
	// DestinationPath overrides the iisApp path on the destination. Defaults to SiteName.
	DestinationPath string

	Parameters ParameterOverlay

	EnableDoNotDeleteRule bool
	// EnableAppOfflineRule makes the engine place App_Offline.htm itself during the sync
	EnableAppOfflineRule bool
	ShowWhatIf           bool

	RetryAttempts int
	// RetryInterval is in milliseconds
	RetryInterval int

	// WrapAppOffline places an all-lowercase app_offline.htm before the deployment and removes it afterwards.
	// Azure is case sensitive about the file name, which the engine's own rule does not get right.
	WrapAppOffline         bool
	AppOfflineHTMLTemplate string

	UnstageFailure UnstagePolicy
}

func NewSettings() Settings {
	return Settings{
		RetryAttempts:          DefaultRetryAttempts,
		RetryInterval:          DefaultRetryInterval,
		AppOfflineHTMLTemplate: DefaultAppOfflineTemplate(),
		UnstageFailure:         UnstagePropagate,
	}
}

func (s Settings) WithPublishURL(v string) Settings {
	s.PublishURL = v
	return s
}

func (s Settings) WithUsername(v string) Settings {
	s.Username = v
	return s
}

func (s Settings) WithPassword(v string) Settings {
	s.Password = v
	return s
}

func (s Settings) WithSiteName(v string) Settings {
	s.SiteName = v
	return s
}

func (s Settings) WithSourcePath(v string) Settings {
	s.SourcePath = v
	return s
}

func (s Settings) WithDestinationPath(v string) Settings {
	s.DestinationPath = v
	return s
}

func (s Settings) WithDoNotDeleteRule(v bool) Settings {
	s.EnableDoNotDeleteRule = v
	return s
}

func (s Settings) ToggleDoNotDeleteRule() Settings {
	return s.WithDoNotDeleteRule(!s.EnableDoNotDeleteRule)
}

func (s Settings) WithAppOfflineRule(v bool) Settings {
	s.EnableAppOfflineRule = v
	return s
}

func (s Settings) ToggleAppOfflineRule() Settings {
	return s.WithAppOfflineRule(!s.EnableAppOfflineRule)
}

func (s Settings) WithWhatIf(v bool) Settings {
	s.ShowWhatIf = v
	return s
}

func (s Settings) ToggleWhatIf() Settings {
	return s.WithWhatIf(!s.ShowWhatIf)
}

func (s Settings) WithRetryAttempts(v int) Settings {
	s.RetryAttempts = v
	return s
}

func (s Settings) WithRetryInterval(ms int) Settings {
	s.RetryInterval = ms
	return s
}

func (s Settings) WithWrapAppOffline(v bool) Settings {
	s.WrapAppOffline = v
	return s
}

func (s Settings) ToggleWrapAppOffline() Settings {
	return s.WithWrapAppOffline(!s.WrapAppOffline)
}

func (s Settings) WithAppOfflineHTMLTemplate(v string) Settings {
	s.AppOfflineHTMLTemplate = v
	return s
}

func (s Settings) WithUnstageFailure(p UnstagePolicy) Settings {
	s.UnstageFailure = p
	return s
}

func (s Settings) WithParameter(key, value string) Settings {
	s.Parameters = s.Parameters.Set(key, value)
	return s
}

// WithParameters adds every entry of m to the parameters, replacing values of names already set.
func (s Settings) WithParameters(m map[string]string) Settings {
	for k, v := range NewParameterOverlay(m).Map() {
		s.Parameters = s.Parameters.Set(k, v)
	}
	return s
}

func (s Settings) WithoutParameter(key string) Settings {
	s.Parameters = s.Parameters.Delete(key)
	return s
}

func (s Settings) WithoutParameters() Settings {
	s.Parameters = ParameterOverlay{}
	return s
}

// TargetPath is the iisApp path deployed to.
func (s Settings) TargetPath() string {
	if s.DestinationPath != "" {
		return s.DestinationPath
	}
	return s.SiteName
}

func (s Settings) appOfflineHTML() string {
	if s.AppOfflineHTMLTemplate == "" {
		return DefaultAppOfflineTemplate()
	}
	return s.AppOfflineHTMLTemplate
}

// Validate checks the settings before anything is sent to the engine. fs is used to check the source directory.
func (s Settings) Validate(fs vfs.FS) error {
	required := []struct {
		name, value string
	}{
		{"publish url", s.PublishURL},
		{"username", s.Username},
		{"password", s.Password},
		{"site name", s.SiteName},
		{"source path", s.SourcePath},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return configErrorf("%s is required", r.name)
		}
	}

	if s.RetryAttempts < 0 {
		return configErrorf("retry attempts must not be negative: %d", s.RetryAttempts)
	}

	if s.RetryInterval < 0 {
		return configErrorf("retry interval must not be negative: %d", s.RetryInterval)
	}

	if _, err := ParseUnstagePolicy(string(s.UnstageFailure)); err != nil {
		return err
	}

	fi, err := fs.Stat(s.SourcePath)
	if os.IsNotExist(err) {
		return configErrorf("source path %s does not exist", s.SourcePath)
	}
	if err != nil {
		return configErrorf("checking source path %s: %w", s.SourcePath, err)
	}
	if !fi.IsDir() {
		return configErrorf("source path %s is not a directory", s.SourcePath)
	}

	return nil
}

func (s Settings) String() string {
	password := ""
	if s.Password != "" {
		password = "********"
	}

	return fmt.Sprintf("Settings{PublishURL:%q Username:%q Password:%q SiteName:%q SourcePath:%q DestinationPath:%q Parameters:%v DoNotDelete:%v AppOfflineRule:%v WhatIf:%v RetryAttempts:%d RetryInterval:%d WrapAppOffline:%v UnstageFailure:%q}",
		s.PublishURL, s.Username, password, s.SiteName, s.SourcePath, s.DestinationPath, s.Parameters.Keys(),
		s.EnableDoNotDeleteRule, s.EnableAppOfflineRule, s.ShowWhatIf, s.RetryAttempts, s.RetryInterval,
		s.WrapAppOffline, s.UnstageFailure)
}
