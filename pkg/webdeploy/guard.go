package webdeploy

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/deployengine"
)

// AppOfflineFileName is the page IIS and Azure App Service look for to take the application offline.
const AppOfflineFileName = "app_offline.htm"

type guardState int

const (
	guardInactive guardState = iota
	guardStaged
	guardRemoved
)

// Guard places the offline page on the destination before the main sync and removes it afterwards.
//
// A Guard is single use. Release only acts when Stage succeeded, and acts only once.
type Guard struct {
	engine  deployengine.Engine
	fs      vfs.FS
	host    HostLogger
	logger  logr.Logger
	tempDir string

	settings Settings
	sync     *deployengine.SyncOptions

	state     guardState
	localFile string
}

func (d *Deployer) newGuard(s Settings, sync *deployengine.SyncOptions) *Guard {
	return &Guard{
		engine:   d.Engine,
		fs:       d.fs,
		host:     d.Host,
		logger:   d.Logger,
		tempDir:  d.TempDir,
		settings: s,
		sync:     sync,
	}
}

// RemotePath is where the offline page is placed on the destination.
func (g *Guard) RemotePath() string {
	return path.Join(g.settings.TargetPath(), AppOfflineFileName)
}

// Stage writes the offline page to a local temporary file and syncs it to the destination.
// It does nothing unless WrapAppOffline is set.
func (g *Guard) Stage() error {
	if !g.settings.WrapAppOffline || g.state != guardInactive {
		return nil
	}

	local, err := g.writeLocalFile()
	if err != nil {
		return &Error{Kind: KindStaging, Op: "writing offline page", Err: err}
	}

	g.logger.V(1).Info("staging offline page", "local", local, "remote", g.RemotePath())

	if err := g.syncFile(local, CreateVariant(g.sync)); err != nil {
		if rerr := g.fs.Remove(local); rerr != nil && !os.IsNotExist(rerr) {
			g.logger.Error(rerr, "removing local offline page", "local", local)
		}
		return &Error{Kind: KindStaging, Op: "placing offline page", Err: err}
	}

	g.localFile = local
	g.state = guardStaged

	return nil
}

// Release removes the offline page from the destination, then the local temporary file.
// The local file is removed even if the remote removal fails.
func (g *Guard) Release() error {
	if g.state != guardStaged {
		return nil
	}
	g.state = guardRemoved

	g.logger.V(1).Info("removing offline page", "local", g.localFile, "remote", g.RemotePath())

	defer func() {
		if err := g.fs.Remove(g.localFile); err != nil && !os.IsNotExist(err) {
			g.logger.Error(err, "removing local offline page", "local", g.localFile)
		}
	}()

	if err := g.syncFile(g.localFile, DeleteVariant(g.sync)); err != nil {
		return &Error{Kind: KindUnstaging, Op: "removing offline page", Err: err}
	}

	return nil
}

func (g *Guard) writeLocalFile() (string, error) {
	if err := vfs.MkdirAll(g.fs, g.tempDir, 0755); err != nil {
		return "", err
	}

	local := filepath.Join(g.tempDir, fmt.Sprintf("app_offline-%s.htm", uuid.New()))

	if err := g.fs.WriteFile(local, []byte(g.settings.appOfflineHTML()), 0644); err != nil {
		return "", err
	}

	return local, nil
}

func (g *Guard) syncFile(local string, opts *deployengine.SyncOptions) error {
	obj, err := g.engine.CreateObject(deployengine.ContentPath, local, SourceOptions())
	if err != nil {
		return err
	}
	defer obj.Close()

	dest := DestinationOptions(g.settings)
	Forward(dest, g.host)

	_, err = obj.SyncTo(deployengine.ContentPath, g.RemotePath(), dest, opts)

	return err
}
