package webdeploy

import (
	"embed"
	iofs "io/fs"
	"strings"
	"sync"
)

const (
	appOfflineResource = "resources/app_offline.html"

	// FallbackAppOfflineTemplate is used when the bundled template cannot be read
	FallbackAppOfflineTemplate = "App Temporary Offline for Maintenance"
)

//go:embed resources
var resources embed.FS

var (
	defaultTemplateOnce sync.Once
	defaultTemplate     string
)

// DefaultAppOfflineTemplate is the bundled maintenance page. It is read once and cached.
func DefaultAppOfflineTemplate() string {
	defaultTemplateOnce.Do(func() {
		defaultTemplate = loadTemplate(resources, appOfflineResource)
	})
	return defaultTemplate
}

func loadTemplate(fsys iofs.FS, name string) string {
	bs, err := iofs.ReadFile(fsys, name)
	if err != nil || strings.TrimSpace(string(bs)) == "" {
		return FallbackAppOfflineTemplate
	}
	return string(bs)
}
