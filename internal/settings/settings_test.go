package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "none.yaml"), nil)
	require.NoError(t, s.Read())
	assert.Empty(t, s.Keys())
	assert.Equal(t, "fallback", s.Get("ui.theme", "fallback"))
	assert.False(t, s.GetBool(KeyDebugBackend, false))
	assert.True(t, s.GetBool(KeyDebugFrontend, true))
}

func TestSetCommitRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vitalis-spy.yaml")
	s := New(path, nil)

	require.NoError(t, s.Set(KeyDebugFrontend, true))
	require.NoError(t, s.Set("ui.theme", "dark"))
	require.NoError(t, s.Set("ui.refresh", 2.5))
	require.NoError(t, s.Commit())

	reloaded := New(path, nil)
	require.NoError(t, reloaded.Read())
	assert.True(t, reloaded.GetBool(KeyDebugFrontend, false))
	assert.Equal(t, "dark", reloaded.Get("ui.theme", ""))
	assert.Equal(t, 2.5, reloaded.Get("ui.refresh", 0.0))
	assert.Equal(t, []string{KeyDebugFrontend, "ui.refresh", "ui.theme"}, reloaded.Keys())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSetUncommittedIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	s := New(path, nil)
	require.NoError(t, s.Set(KeyDebugBackend, true))
	assert.True(t, s.GetBool(KeyDebugBackend, false))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSetRejectsComposite(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "s.yaml"), nil)
	err := s.Set("ui.layout", map[string]interface{}{"a": 1})
	assert.ErrorIs(t, err, ErrInvalidValue)
	err = s.Set("ui.list", []string{"a"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestGetBoolWrongType(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "s.yaml"), nil)
	require.NoError(t, s.Set(KeyDebugBackend, "yes"))
	assert.False(t, s.GetBool(KeyDebugBackend, false))
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("key: [unclosed\n"), 0644))
	assert.ErrorContains(t, New(bad, nil).Read(), "settings: parse")

	// A directory where the file should be cannot be read.
	assert.ErrorContains(t, New(dir, nil).Read(), "settings: read")
}

func TestCommitUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	s := New(filepath.Join(blocker, "s.yaml"), nil)
	assert.Error(t, s.Commit())
}

func TestConcurrentSetGet(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "s.yaml"), nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(KeyDebugBackend, i%2 == 0)
			_ = s.GetBool(KeyDebugBackend, false)
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Commit())
}

func TestMigrateLegacy(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "new", "vitalis-spy.yaml")
	missing := filepath.Join(dir, "missing.yaml")
	legacy := filepath.Join(dir, "old.yaml")
	require.NoError(t, os.WriteFile(legacy, []byte("debug.backend: true\n"), 0644))

	from, err := MigrateLegacy(dst, []string{missing, legacy}, nil)
	require.NoError(t, err)
	assert.Equal(t, legacy, from)

	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err))

	s := New(dst, nil)
	require.NoError(t, s.Read())
	assert.True(t, s.GetBool(KeyDebugBackend, false))
}

func TestMigrateLegacyKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "current.yaml")
	legacy := filepath.Join(dir, "old.yaml")
	require.NoError(t, os.WriteFile(dst, []byte("a: 1\n"), 0644))
	require.NoError(t, os.WriteFile(legacy, []byte("a: 2\n"), 0644))

	from, err := MigrateLegacy(dst, []string{legacy}, nil)
	require.NoError(t, err)
	assert.Empty(t, from)

	_, err = os.Stat(legacy)
	assert.NoError(t, err, "legacy file untouched")
}

func TestMigrateLegacyNothingToDo(t *testing.T) {
	dir := t.TempDir()
	from, err := MigrateLegacy(filepath.Join(dir, "s.yaml"), []string{"", filepath.Join(dir, "gone.yaml")}, nil)
	require.NoError(t, err)
	assert.Empty(t, from)
}

func TestMigrateLegacyDirectory(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "settings", "vitalis-spy.yaml")
	legacy := filepath.Join(dir, "old")
	require.NoError(t, os.MkdirAll(filepath.Join(legacy, "cache"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "vitalis-spy.yaml"), []byte("debug.frontend: true\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "cache", "procs.json"), []byte("[]"), 0644))

	from, err := MigrateLegacy(dst, []string{legacy}, nil)
	require.NoError(t, err)
	assert.Equal(t, legacy, from)

	s := New(dst, nil)
	require.NoError(t, s.Read())
	assert.True(t, s.GetBool(KeyDebugFrontend, false))

	data, err := os.ReadFile(filepath.Join(dir, "settings", "cache", "procs.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err), "emptied legacy directory is removed")
}

func TestMigrateLegacyDirectoryKeepsExistingEntries(t *testing.T) {
	dir := t.TempDir()
	settingsDir := filepath.Join(dir, "settings")
	dst := filepath.Join(settingsDir, "vitalis-spy.yaml")
	legacy := filepath.Join(dir, "old")
	require.NoError(t, os.MkdirAll(legacy, 0755))
	require.NoError(t, os.MkdirAll(settingsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "notes.txt"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(settingsDir, "notes.txt"), []byte("new"), 0644))

	_, err := MigrateLegacy(dst, []string{legacy}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(settingsDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	_, err = os.Stat(filepath.Join(legacy, "notes.txt"))
	assert.NoError(t, err, "skipped entry stays behind")
}
