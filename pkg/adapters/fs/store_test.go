package fs_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anttttti/DuneBlend/pkg/adapters/fs"
	"github.com/anttttti/DuneBlend/pkg/core"
	"github.com/anttttti/DuneBlend/pkg/git"
)

// setupStore creates an initialized store inside a temp dir.
// It returns the store and the blends directory.
func setupStore(t *testing.T, opts ...func(*fs.Config)) (*fs.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blends")
	cfg := fs.Config{
		Path:     path,
		AutoInit: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := fs.NewStore(cfg)
	if err := store.Initialize(context.Background()); err != nil {
		if cfg.Versioning && !git.IsInstalled() {
			t.Skip("git not installed")
		}
		t.Fatalf("Initialize failed: %v", err)
	}
	return store, path
}

func readIndex(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(path, fs.DefaultIndexFile))
	require.NoError(t, err)

	var entries []struct {
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(data, &entries))

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Filename
	}
	return names
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory And Index", func(t *testing.T) {
		_, path := setupStore(t)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Empty(t, readIndex(t, path))
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		store := fs.NewStore(fs.Config{Path: filepath.Join(t.TempDir(), "nope"), MustExist: true})
		err := store.Initialize(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("Rejects Invalid Pattern", func(t *testing.T) {
		store := fs.NewStore(fs.Config{Path: t.TempDir(), Pattern: "[*.md"})
		assert.Error(t, store.Initialize(context.Background()))
	})

	t.Run("Indexes Existing Files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# B"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

		_, path := setupStore(t, func(c *fs.Config) { c.Path = dir })
		assert.Equal(t, []string{"a.md", "b.md"}, readIndex(t, path))
	})

	t.Run("Read Only Leaves Directory Untouched", func(t *testing.T) {
		_, path := setupStore(t, func(c *fs.Config) { c.ReadOnly = true })
		_, err := os.Stat(filepath.Join(path, fs.DefaultIndexFile))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestStore_CRUD(t *testing.T) {
	store, path := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "Spice_Wars.md", []byte("# Spice Wars\n")))
	require.NoError(t, store.Save(ctx, "Arrakis.md", []byte("# Arrakis\n")))

	data, err := store.Get(ctx, "Spice_Wars.md")
	require.NoError(t, err)
	assert.Equal(t, "# Spice Wars\n", string(data))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Arrakis.md", list[0].Filename)
	assert.Equal(t, int64(len("# Arrakis\n")), list[0].Size)
	assert.NotZero(t, list[0].Modified)
	assert.Equal(t, []string{"Arrakis.md", "Spice_Wars.md"}, readIndex(t, path))

	require.NoError(t, store.Delete(ctx, "Arrakis.md"))
	_, err = store.Get(ctx, "Arrakis.md")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "Arrakis.md"), core.ErrNotFound)
	assert.Equal(t, []string{"Spice_Wars.md"}, readIndex(t, path))
}

func TestStore_Filenames(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for _, bad := range []string{"../escape.md", "sub/dir.md", "notes.txt", fs.TempFilePrefix + "x.md"} {
		assert.ErrorIs(t, store.Save(ctx, bad, []byte("x")), core.ErrInvalidFilename, bad)
	}
	_, err := store.Get(ctx, "../escape.md")
	assert.ErrorIs(t, err, core.ErrInvalidFilename)
}

func TestStore_ListSkipsForeignFiles(t *testing.T) {
	store, path := setupStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(path, "readme.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, fs.TempFilePrefix+"123"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(path, "dir.md"), 0755))
	require.NoError(t, store.Save(ctx, "real.md", []byte("# Real")))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "real.md", list[0].Filename)
}

func TestStore_ReadOnly(t *testing.T) {
	store, _ := setupStore(t, func(c *fs.Config) { c.ReadOnly = true })
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "a.md", []byte("x")), core.ErrReadOnly)
	assert.ErrorIs(t, store.Delete(ctx, "a.md"), core.ErrReadOnly)
	assert.False(t, store.DetectFeatures(ctx).CanSaveToServer)
	assert.Equal(t, core.ServerLocal, store.DetectFeatures(ctx).ServerType)
}

func TestStore_NoIndex(t *testing.T) {
	store, path := setupStore(t, func(c *fs.Config) { c.IndexFile = fs.NoIndex })
	require.NoError(t, store.Save(context.Background(), "a.md", []byte("x")))

	_, err := os.Stat(filepath.Join(path, fs.DefaultIndexFile))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Versioning(t *testing.T) {
	store, path := setupStore(t, func(c *fs.Config) { c.Versioning = true })
	ctx := context.Background()
	client := git.NewClient(path, "", nil)

	ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), git.DefaultLockName)

	require.NoError(t, store.Save(ctx, "Spice.md", []byte("# Spice\n")))
	require.NoError(t, store.Save(ctx, "Spice.md", []byte("# Spice\n\n## Imperium\n\n- Sword\n")))

	history, err := store.History(ctx, "Spice.md", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "feat(blends): save Spice.md", history[0].Subject)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status, "save should leave a clean work tree")

	// Untracked files are deleted without git rm.
	require.NoError(t, os.WriteFile(filepath.Join(path, "dropped.md"), []byte("x"), 0644))
	require.NoError(t, store.Delete(ctx, "dropped.md"))

	require.NoError(t, store.Delete(ctx, "Spice.md"))
	_, err = os.Stat(filepath.Join(path, "Spice.md"))
	assert.True(t, os.IsNotExist(err))

	log, err := client.Run(ctx, "log", "--format=%s")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(log, "fix(blends): delete Spice.md"), log)
}

func TestStore_HistoryWithoutVersioning(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.History(context.Background(), "a.md", 1)
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestStore_State(t *testing.T) {
	store, path := setupStore(t)
	require.NoError(t, store.Save(context.Background(), "a.md", []byte("x")))

	state, ok := store.State().(fs.StoreState)
	require.True(t, ok)
	assert.Equal(t, path, state.Path)
	assert.Equal(t, fs.DefaultPattern, state.Pattern)
	assert.Equal(t, 1, state.IndexSize)
	assert.NotNil(t, state.LastIndexed)
	assert.False(t, state.WatcherActive)
	assert.Equal(t, "fs-store", store.ComponentType())
}

func TestStore_ServiceIntegration(t *testing.T) {
	store, _ := setupStore(t)
	svc := core.NewService(store)
	ctx := context.Background()

	assert.Equal(t, core.ServerLocal, svc.Features(ctx).ServerType)

	name, err := svc.Upload(ctx, "Imported Blend.md", []byte("# Imported Blend\n\n## Intrigue\n\n- 2× Bribe\n"))
	require.NoError(t, err)
	doc, err := svc.LoadBlend(ctx, name)
	require.NoError(t, err)
	require.Len(t, doc.Items("Intrigue"), 1)
	assert.Equal(t, 2, doc.Items("Intrigue")[0].Count)

	state, ok := svc.State().(core.ServiceState)
	require.True(t, ok)
	assert.Equal(t, "fs-store", state.StoreType)
}
