package localengine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/deployengine"
)

type object struct {
	engine *Engine

	kind   deployengine.ProviderKind
	path   string
	isDir  bool
	params *deployengine.SyncParameters
}

func (o *object) SyncParameters() *deployengine.SyncParameters {
	return o.params
}

func (o *object) Close() error {
	return nil
}

func (o *object) SyncTo(kind deployengine.ProviderKind, path string, dest *deployengine.BaseOptions, opts *deployengine.SyncOptions) (*deployengine.ChangeSummary, error) {
	e := o.engine
	target := filepath.Join(e.Root, filepath.FromSlash(path))

	e.Logger.V(1).Info("sync", "source", o.path, "kind", kind, "target", target, "whatif", opts.WhatIf)

	if !dest.IsLocal() {
		dest.Tracef(deployengine.TraceVerbose, "Ignoring computerName %q: syncing to local directory %s", dest.ComputerName, e.Root)
	}

	s := &syncer{engine: e, dest: dest, opts: opts}

	if opts.DeleteDestination {
		if err := s.deleteTarget(target); err != nil {
			return nil, err
		}
		return s.finish(), nil
	}

	for _, p := range o.params.All() {
		if p.HasValue {
			dest.Tracef(deployengine.TraceVerbose, "Parameter %q has no parameter entries to apply in a local sync", p.Name)
		}
	}

	if kind == deployengine.IisApp && opts.HasRule("AppOffline") && !opts.WhatIf {
		offline := filepath.Join(target, AppOfflineFileName)

		if _, err := e.fs.Stat(offline); err == nil {
			dest.Tracef(deployengine.TraceVerbose, "%s is already in place.", AppOfflineFileName)
		} else {
			if err := s.write(offline, []byte("App Offline")); err != nil {
				return nil, fmt.Errorf("taking application offline: %w", err)
			}
			defer func() {
				if err := e.fs.Remove(offline); err != nil && !os.IsNotExist(err) {
					dest.Tracef(deployengine.TraceWarning, "Could not remove %s: %v", offline, err)
				}
			}()
		}
	}

	if !o.isDir {
		if err := s.copyFile(o.path, target, filepath.Base(target)); err != nil {
			return nil, err
		}
		return s.finish(), nil
	}

	// An offline page at the application root is never treated as an extra file
	if err := s.syncDir(o.path, target, kind == deployengine.IisApp); err != nil {
		return nil, err
	}

	return s.finish(), nil
}

type syncer struct {
	engine  *Engine
	dest    *deployengine.BaseOptions
	opts    *deployengine.SyncOptions
	summary deployengine.ChangeSummary
}

func (s *syncer) finish() *deployengine.ChangeSummary {
	summary := s.summary
	s.dest.Trace(deployengine.TraceInfo, summary.String())
	return &summary
}

func (s *syncer) syncDir(source, target string, keepAppOffline bool) error {
	fs := s.engine.fs

	seen := map[string]bool{}

	err := vfs.Walk(fs, source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		seen[rel] = true

		dst := filepath.Join(target, rel)

		if info.IsDir() {
			return s.ensureDir(dst, rel)
		}

		return s.copyFile(path, dst, rel)
	})
	if err != nil {
		return fmt.Errorf("syncing %s to %s: %w", source, target, err)
	}

	if s.opts.DoNotDelete || s.opts.HasRule("DoNotDeleteRule") {
		return nil
	}

	if _, err := fs.Stat(target); os.IsNotExist(err) {
		return nil
	}

	var extra []string

	err = vfs.Walk(fs, target, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(target, path)
		if err != nil {
			return err
		}
		if rel == "." || seen[rel] {
			return nil
		}
		if keepAppOffline && rel == AppOfflineFileName {
			return nil
		}

		extra = append(extra, rel)

		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("looking for extra files in %s: %w", target, err)
	}

	sort.Strings(extra)

	for _, rel := range extra {
		s.dest.Tracef(deployengine.TraceInfo, "Deleting %s (%s).", filepath.ToSlash(rel), target)
		s.summary.ObjectsDeleted++
		if s.opts.WhatIf {
			continue
		}
		if err := fs.RemoveAll(filepath.Join(target, rel)); err != nil {
			return fmt.Errorf("deleting %s: %w", rel, err)
		}
	}

	return nil
}

func (s *syncer) ensureDir(dst, rel string) error {
	fi, err := s.engine.fs.Stat(dst)
	if err == nil && fi.IsDir() {
		return nil
	}

	s.dest.Tracef(deployengine.TraceInfo, "Adding directory (%s).", filepath.ToSlash(rel))
	s.summary.ObjectsAdded++

	if s.opts.WhatIf {
		return nil
	}

	return s.retry("creating directory "+rel, func() error {
		if err == nil {
			// A file is in the way of the directory
			if err := s.engine.fs.RemoveAll(dst); err != nil {
				return err
			}
		}
		return vfs.MkdirAll(s.engine.fs, dst, 0755)
	})
}

func (s *syncer) copyFile(src, dst, rel string) error {
	fs := s.engine.fs

	contents, err := fs.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	existing, err := fs.ReadFile(dst)
	switch {
	case err == nil && bytes.Equal(existing, contents):
		return nil
	case err == nil:
		s.dest.Tracef(deployengine.TraceInfo, "Updating file (%s).", filepath.ToSlash(rel))
		s.summary.ObjectsUpdated++
	default:
		s.dest.Tracef(deployengine.TraceInfo, "Adding file (%s).", filepath.ToSlash(rel))
		s.summary.ObjectsAdded++
	}

	if s.opts.WhatIf {
		return nil
	}

	if err := s.write(dst, contents); err != nil {
		return err
	}

	s.summary.BytesCopied += int64(len(contents))

	return nil
}

func (s *syncer) write(dst string, contents []byte) error {
	return s.retry("writing "+dst, func() error {
		if err := vfs.MkdirAll(s.engine.fs, filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return s.engine.fs.WriteFile(dst, contents, 0644)
	})
}

func (s *syncer) deleteTarget(target string) error {
	if _, err := s.engine.fs.Stat(target); os.IsNotExist(err) {
		s.dest.Tracef(deployengine.TraceVerbose, "Nothing to delete at %s.", target)
		return nil
	}

	s.dest.Tracef(deployengine.TraceInfo, "Deleting (%s).", target)
	s.summary.ObjectsDeleted++

	if s.opts.WhatIf {
		return nil
	}

	return s.retry("deleting "+target, func() error {
		return s.engine.fs.RemoveAll(target)
	})
}

// retry runs f once plus up to RetryAttempts more times, waiting RetryInterval in between.
func (s *syncer) retry(what string, f func() error) error {
	var err error

	for attempt := 0; attempt <= s.dest.RetryAttempts; attempt++ {
		if attempt > 0 {
			s.dest.Tracef(deployengine.TraceWarning, "Retrying %s (attempt %d of %d): %v", what, attempt, s.dest.RetryAttempts, err)
			s.engine.sleep(s.dest.RetryDelay())
		}

		if err = f(); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%s: %w", what, err)
}
