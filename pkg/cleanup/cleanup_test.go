package cleanup

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestRemoveMatchingKeepsExcluded(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.n8x.tmp"))
	touch(t, filepath.Join(root, "n8x.json"))
	touch(t, filepath.Join(root, "b.txt"))

	outcomes, err := New(nil).RemoveMatching(root, "n8x", "n8x.json")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, ActionRemoved, outcomes[0].Action)
	assert.Equal(t, filepath.Join(root, "a.n8x.tmp"), outcomes[0].Path)

	assert.NoFileExists(t, filepath.Join(root, "a.n8x.tmp"))
	assert.FileExists(t, filepath.Join(root, "n8x.json"))
	assert.FileExists(t, filepath.Join(root, "b.txt"))
}

func TestRemoveMatchingWalksSubdirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "src", "deep", "old.n8x.log"))
	touch(t, filepath.Join(root, "src", "n8x.json"))
	touch(t, filepath.Join(root, "src", "keep.go"))

	var reported []string
	c := New(nil)
	c.Report = func(o Outcome) { reported = append(reported, o.String()) }

	_, err := c.RemoveMatching(root, "n8x", "n8x.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Removed: " + filepath.Join(root, "src", "deep", "old.n8x.log")}, reported)
	assert.FileExists(t, filepath.Join(root, "src", "n8x.json"))
	assert.FileExists(t, filepath.Join(root, "src", "keep.go"))
}

func TestRemoveMatchingDoesNotRemoveDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "n8x-cache"), 0o755))

	outcomes, err := New(nil).RemoveMatching(root, "n8x", "n8x.json")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.DirExists(t, filepath.Join(root, "n8x-cache"))
}

func TestRemoveMatchingInvalidPattern(t *testing.T) {
	_, err := New(nil).RemoveMatching(t.TempDir(), "(", "")
	require.Error(t, err)
}

func TestRemoveDir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".n8x", "state", "cache.json"))

	c := New(nil)
	o := c.RemoveDir(root, ".n8x")
	assert.Equal(t, ActionRemoved, o.Action)
	assert.Equal(t, "Removed directory: "+filepath.Join(root, ".n8x"), o.String())
	assert.NoDirExists(t, filepath.Join(root, ".n8x"))

	o = c.RemoveDir(root, "dist")
	assert.Equal(t, ActionAbsent, o.Action)
	assert.NoError(t, o.Err)
	assert.Equal(t, "Directory "+filepath.Join(root, "dist")+" does not exist.", o.String())
}

func TestFailures(t *testing.T) {
	outcomes := []Outcome{
		{Path: "a", Action: ActionRemoved},
		{Path: "b", Action: ActionFailed, Err: os.ErrPermission},
		{Path: "c", Action: ActionAbsent},
	}
	failed := Failures(outcomes)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].Path)
}

func lockDir(t *testing.T, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs POSIX permissions enforced for a non-root user")
	}
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })
}

func TestRemoveMatchingContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	touch(t, filepath.Join(locked, "stuck.n8x.tmp"))
	touch(t, filepath.Join(root, "loose.n8x.tmp"))
	touch(t, filepath.Join(root, "zz", "later.n8x.tmp"))
	lockDir(t, locked)

	var reported []Outcome
	c := New(nil)
	c.Report = func(o Outcome) { reported = append(reported, o) }

	outcomes, err := c.RemoveMatching(root, "n8x", "n8x.json")
	require.NoError(t, err)
	assert.Equal(t, outcomes, reported)

	failed := Failures(outcomes)
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(locked, "stuck.n8x.tmp"), failed[0].Path)
	assert.Error(t, failed[0].Err)
	assert.Contains(t, failed[0].String(), "Error removing "+failed[0].Path)

	assert.Len(t, outcomes, 3)
	assert.FileExists(t, filepath.Join(locked, "stuck.n8x.tmp"))
	assert.NoFileExists(t, filepath.Join(root, "loose.n8x.tmp"))
	assert.NoFileExists(t, filepath.Join(root, "zz", "later.n8x.tmp"))
}

func TestRemoveDirFailure(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "dist", "bundle.js"))
	lockDir(t, root)

	o := New(nil).RemoveDir(root, "dist")
	assert.Equal(t, ActionFailed, o.Action)
	assert.True(t, o.Dir)
	assert.Error(t, o.Err)
	assert.Equal(t, "Error removing directory "+filepath.Join(root, "dist")+": "+o.Err.Error(), o.String())
}
