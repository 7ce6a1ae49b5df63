package localengine

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"
	"github.com/variantdev/webdeploy/pkg/deployengine"
)

func newTestEngine(t *testing.T, fs vfs.FS) *Engine {
	t.Helper()

	e, err := New(Root("/www"), FS(fs))
	if err != nil {
		t.Fatal(err)
	}
	e.sleep = func(time.Duration) {}

	return e
}

func testFiles() map[string]interface{} {
	return map[string]interface{}{
		"/src/index.html":           "new",
		"/src/css/site.css":         "body{}",
		"/www/example/index.html":   "old",
		"/www/example/stale.txt":    "x",
		"/www/example/old/a.txt":    "a",
		"/www/other/untouched.html": "keep",
	}
}

func sync(t *testing.T, e *Engine, dest *deployengine.BaseOptions, opts *deployengine.SyncOptions) *deployengine.ChangeSummary {
	t.Helper()

	obj, err := e.CreateObject(deployengine.IisApp, "/src", &deployengine.BaseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer obj.Close()

	summary, err := obj.SyncTo(deployengine.IisApp, "example", dest, opts)
	if err != nil {
		t.Fatal(err)
	}

	return summary
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
		t.Errorf("expected %s to not exist, got err=%v", path, err)
	}
}

func TestSyncTo_Mirror(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(testFiles())
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	summary := sync(t, newTestEngine(t, fs), &deployengine.BaseOptions{}, &deployengine.SyncOptions{})

	expected := deployengine.ChangeSummary{
		ObjectsAdded:   2,
		ObjectsUpdated: 1,
		ObjectsDeleted: 2,
		BytesCopied:    9,
	}
	if diff := cmp.Diff(expected, *summary); diff != "" {
		t.Errorf("unexpected summary:\n%s", diff)
	}

	if got := readString(t, fs, "/www/example/index.html"); got != "new" {
		t.Errorf("unexpected index.html: %q", got)
	}
	if got := readString(t, fs, "/www/example/css/site.css"); got != "body{}" {
		t.Errorf("unexpected site.css: %q", got)
	}
	assertNotExist(t, fs, "/www/example/stale.txt")
	assertNotExist(t, fs, "/www/example/old")

	if got := readString(t, fs, "/www/other/untouched.html"); got != "keep" {
		t.Errorf("sibling site must not be touched, got %q", got)
	}
}

func TestSyncTo_DoNotDelete(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(testFiles())
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	summary := sync(t, newTestEngine(t, fs), &deployengine.BaseOptions{}, &deployengine.SyncOptions{DoNotDelete: true})

	if summary.ObjectsDeleted != 0 {
		t.Errorf("unexpected deletions: %v", summary)
	}

	if got := readString(t, fs, "/www/example/stale.txt"); got != "x" {
		t.Errorf("unexpected stale.txt: %q", got)
	}
}

func TestSyncTo_WhatIf(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(testFiles())
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	summary := sync(t, newTestEngine(t, fs), &deployengine.BaseOptions{}, &deployengine.SyncOptions{WhatIf: true})

	if summary.TotalChanges() != 5 {
		t.Errorf("what-if must still report the changes it would make, got %v", summary)
	}

	if summary.BytesCopied != 0 {
		t.Errorf("what-if must not copy bytes, got %d", summary.BytesCopied)
	}

	if got := readString(t, fs, "/www/example/index.html"); got != "old" {
		t.Errorf("what-if must not touch the destination, got %q", got)
	}
	assertNotExist(t, fs, "/www/example/css")
}

func TestSyncTo_AppOfflineRule(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(testFiles())
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	dest := &deployengine.BaseOptions{}

	var onlineDuringSync bool
	dest.OnTrace(func(ev deployengine.TraceEvent) {
		if ev.Message == "Updating file (index.html)." {
			if _, err := fs.Stat("/www/example/app_offline.htm"); err != nil {
				onlineDuringSync = true
			}
		}
	})

	sync(t, newTestEngine(t, fs), dest, &deployengine.SyncOptions{Rules: []deployengine.Rule{{Name: "AppOffline"}}})

	if onlineDuringSync {
		t.Errorf("expected app_offline.htm to be present during the sync")
	}

	assertNotExist(t, fs, "/www/example/app_offline.htm")
}

func TestSyncTo_KeepsStagedAppOffline(t *testing.T) {
	files := testFiles()
	files["/www/example/app_offline.htm"] = "staged"

	fs, clean, err := vfst.NewTestFS(files)
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	sync(t, newTestEngine(t, fs), &deployengine.BaseOptions{}, &deployengine.SyncOptions{Rules: []deployengine.Rule{{Name: "AppOffline"}}})

	if got := readString(t, fs, "/www/example/app_offline.htm"); got != "staged" {
		t.Errorf("expected the staged offline page to be kept, got %q", got)
	}

	assertNotExist(t, fs, "/www/example/stale.txt")
}

func TestSyncTo_DeleteDestination(t *testing.T) {
	files := testFiles()
	files["/tmp/page.htm"] = "offline"
	files["/www/example/app_offline.htm"] = "offline"

	fs, clean, err := vfst.NewTestFS(files)
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	e := newTestEngine(t, fs)

	obj, err := e.CreateObject(deployengine.ContentPath, "/tmp/page.htm", &deployengine.BaseOptions{})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := obj.SyncTo(deployengine.ContentPath, "example/app_offline.htm", &deployengine.BaseOptions{}, &deployengine.SyncOptions{DeleteDestination: true})
	if err != nil {
		t.Fatal(err)
	}

	if summary.ObjectsDeleted != 1 {
		t.Errorf("unexpected summary: %v", summary)
	}

	assertNotExist(t, fs, "/www/example/app_offline.htm")

	if got := readString(t, fs, "/www/example/index.html"); got != "old" {
		t.Errorf("only the addressed file may be deleted, got %q", got)
	}
}

type flakyFS struct {
	vfs.FS
	failures int
}

func (f *flakyFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("file is locked")
	}
	return f.FS.WriteFile(name, data, perm)
}

func TestSyncTo_Retry(t *testing.T) {
	testFS, clean, err := vfst.NewTestFS(map[string]interface{}{
		"/tmp/page.htm":      "offline",
		"/www/example/.keep": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	testcases := []struct {
		failures int
		retries  int
		wantErr  bool
	}{
		{failures: 2, retries: 2, wantErr: false},
		{failures: 3, retries: 2, wantErr: true},
	}

	for i := range testcases {
		tc := testcases[i]

		fs := &flakyFS{FS: testFS, failures: tc.failures}
		e := newTestEngine(t, fs)

		var slept int
		e.sleep = func(time.Duration) { slept++ }

		obj, err := e.CreateObject(deployengine.ContentPath, "/tmp/page.htm", &deployengine.BaseOptions{})
		if err != nil {
			t.Fatal(err)
		}

		dest := &deployengine.BaseOptions{RetryAttempts: tc.retries, RetryInterval: 10}

		_, err = obj.SyncTo(deployengine.ContentPath, "example/app_offline.htm", dest, &deployengine.SyncOptions{})
		if (err != nil) != tc.wantErr {
			t.Errorf("%d: unexpected error: %v", i, err)
		}

		if slept != tc.retries {
			t.Errorf("%d: unexpected number of waits: expected=%d, got=%d", i, tc.retries, slept)
		}

		testFS.RemoveAll("/www/example/app_offline.htm")
	}
}

func TestCreateObject_MissingSource(t *testing.T) {
	fs, clean, err := vfst.NewTestFS(map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	defer clean()

	if _, err := newTestEngine(t, fs).CreateObject(deployengine.IisApp, "/nope", &deployengine.BaseOptions{}); err == nil {
		t.Errorf("expected an error for a missing source")
	}
}
