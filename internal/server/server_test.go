package server_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anttttti/DuneBlend/internal/server"
	"github.com/anttttti/DuneBlend/pkg/adapters/fs"
	"github.com/anttttti/DuneBlend/pkg/adapters/remote"
	"github.com/anttttti/DuneBlend/pkg/blend"
	"github.com/anttttti/DuneBlend/pkg/core"
)

const resources = `{
  "imperium": [
    {"resource_type": "imperium", "name": "Sword", "source": "Imperium", "cost": 2}
  ],
  "conflicts": [
    {"name": "Siege", "source": "Imperium", "displayName": "Siege of Arrakeen"}
  ]
}`

const baseBlend = "# Base Imperium\n\n## Imperium\n\n- 2× Sword (Imperium)\n- Mystery Card\n\n---\n" + blend.Footer + "\n"

type fixture struct {
	srv       *httptest.Server
	blendsDir string
}

func setup(t *testing.T, opts ...core.ServiceOption) fixture {
	t.Helper()
	root := t.TempDir()
	blendsDir := filepath.Join(root, "blends")
	static := filepath.Join(root, "static")

	require.NoError(t, os.MkdirAll(blendsDir, 0755))
	require.NoError(t, os.MkdirAll(static, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(blendsDir, "Base_Imperium.md"), []byte(baseBlend), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "resources.json"), []byte(resources), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>builder</html>"), 0644))

	store := fs.NewStore(fs.Config{Path: blendsDir})
	require.NoError(t, store.Initialize(context.Background()))

	svcOpts := append([]core.ServiceOption{core.WithFetcher(fs.Assets{Root: static})}, opts...)
	svc := core.NewService(store, svcOpts...)

	srv := httptest.NewServer(server.New(svc, server.Config{StaticDir: static}).Handler())
	t.Cleanup(srv.Close)
	return fixture{srv: srv, blendsDir: blendsDir}
}

func (f fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (f fixture) post(t *testing.T, path string, v any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(string(data)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestFeatures(t *testing.T) {
	f := setup(t)
	resp, body := f.get(t, "/api/server-features")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"canSaveToServer":true,"canLoadFromServer":true,"serverType":"local"}`, body)

	ro := setup(t, core.WithReadOnly(true))
	_, body = ro.get(t, "/api/server-features")
	assert.JSONEq(t, `{"canSaveToServer":false,"canLoadFromServer":true,"serverType":"local"}`, body)
}

func TestListAndIndex(t *testing.T) {
	f := setup(t)

	_, body := f.get(t, "/api/blends")
	var list []core.BlendInfo
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Base_Imperium.md", list[0].Filename)
	assert.Equal(t, int64(len(baseBlend)), list[0].Size)
	assert.NotZero(t, list[0].Modified)

	_, body = f.get(t, "/blends/index.json")
	assert.JSONEq(t, `[{"filename":"Base_Imperium.md"}]`, body)
}

func TestRawAndDownload(t *testing.T) {
	f := setup(t)

	resp, body := f.get(t, "/blends/Base_Imperium.md")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, baseBlend, body)

	resp, body = f.get(t, "/api/blend/download/Base_Imperium.md")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, baseBlend, body)
	assert.Equal(t, `attachment; filename=Base_Imperium.md`, resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown"))

	resp, _ = f.get(t, "/api/blend/download/Missing.md")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.get(t, "/api/blend/download/..%5Csecret.md")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoad(t *testing.T) {
	f := setup(t)

	resp, body := f.get(t, "/api/blend/load/Base_Imperium.md")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Success    bool            `json:"success"`
		Resources  *blend.Document `json:"resources"`
		Unresolved []string        `json:"unresolved"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.Success)
	assert.Equal(t, []string{"Imperium: Mystery Card"}, out.Unresolved)

	items := out.Resources.Items("Imperium")
	require.Len(t, items, 3, "counts expand into repeated items")
	assert.Equal(t, "Sword", items[0].Name)
	assert.Equal(t, "Imperium", items[0].Source)

	resp, body = f.get(t, "/api/blend/load/Missing.md")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Blend file not found"}`, body)
}

func TestLoad_LargeCount(t *testing.T) {
	f := setup(t)
	content := "# Huge\n\n## Imperium\n\n- 999999999× Sword (Imperium)\n"
	resp, _ := f.post(t, "/api/blend/upload", map[string]string{"filename": "Huge.md", "content": content})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.get(t, "/api/blend/load/Huge.md")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Resources  *blend.Document `json:"resources"`
		Unresolved []string        `json:"unresolved"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, []string{"Imperium: Sword (Imperium)"}, out.Unresolved)
	items := out.Resources.Items("Imperium")
	require.Len(t, items, 1)
	assert.Equal(t, 999999999, items[0].Count)
}

func TestUpload(t *testing.T) {
	f := setup(t)

	resp, out := f.post(t, "/api/blend/upload", map[string]string{"filename": "nested/My Mix", "content": "# My Mix\n"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "My Mix.md", out["filename"])
	assert.Equal(t, "Blend saved to server: My Mix.md", out["message"])

	data, err := os.ReadFile(filepath.Join(f.blendsDir, "My Mix.md"))
	require.NoError(t, err)
	assert.Equal(t, "# My Mix\n", string(data))

	index, err := os.ReadFile(filepath.Join(f.blendsDir, fs.DefaultIndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), `"My Mix.md"`)

	r, err := http.Post(f.srv.URL+"/api/blend/upload", "text/plain", strings.NewReader("# Raw\n"))
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, r.StatusCode)
}

func TestSave(t *testing.T) {
	f := setup(t)

	req := map[string]any{
		"name": "Spice Wars",
		"resources": map[string]any{
			"Board":    map[string]any{"mainBoard": "uprising", "additionalBoards": []string{"shaddam"}},
			"Imperium": []map[string]any{{"name": "Sword", "source": "Imperium"}, {"name": "Sword", "source": "Imperium"}},
		},
	}
	resp, out := f.post(t, "/api/blend/save", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Spice_Wars.md", out["filename"])
	assert.Equal(t, "server", out["location"])

	data, err := os.ReadFile(filepath.Join(f.blendsDir, "Spice_Wars.md"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# Spice Wars\n"))
	assert.Contains(t, text, "- Main Board: uprising\n")
	assert.Contains(t, text, "- 2× Sword (Imperium)\n")
}

func TestDelete(t *testing.T) {
	f := setup(t)

	resp, out := f.post(t, "/api/blend/delete", map[string]string{"filename": "Base_Imperium.md"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, false, out["success"])

	f.post(t, "/api/blend/upload", map[string]string{"filename": "Mine.md", "content": "# Mine\n"})
	resp, out = f.post(t, "/api/blend/delete", map[string]string{"filename": "Mine.md"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Blend deleted: Mine.md", out["message"])

	resp, _ = f.post(t, "/api/blend/delete", map[string]string{"filename": "Mine.md"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.post(t, "/api/blend/delete", map[string]string{"filename": "../x.md"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadOnly(t *testing.T) {
	f := setup(t, core.WithReadOnly(true))
	resp, out := f.post(t, "/api/blend/upload", map[string]string{"filename": "Mine.md", "content": "# Mine\n"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, out["error"], "read-only")
}

func TestResources(t *testing.T) {
	f := setup(t)

	_, body := f.get(t, "/api/resources")
	var all map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &all))
	assert.Len(t, all["imperium"], 1)
	assert.Len(t, all["conflicts"], 1)

	_, body = f.get(t, "/api/resources/Imperium")
	assert.Contains(t, body, `"name":"Sword"`)

	_, body = f.get(t, "/api/resources/unknown")
	assert.JSONEq(t, `[]`, body)
}

func TestStaticAndPreflight(t *testing.T) {
	f := setup(t)

	resp, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "builder")

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/blend/upload", nil)
	require.NoError(t, err)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "GET, POST, OPTIONS", r.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", r.Header.Get("Access-Control-Allow-Headers"))
}

func TestGzip(t *testing.T) {
	f := setup(t)

	// Large enough to pass the compression threshold.
	content := "# Big\n\n## Imperium\n\n" + strings.Repeat("- Sword (Imperium)\n", 200)
	f.post(t, "/api/blend/upload", map[string]string{"filename": "Big.md", "content": content})

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/blends/Big.md", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	// A transport that leaves decompression to the test.
	resp, err := (&http.Transport{DisableCompression: true}).RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

// The remote store is the client of this API.
func TestRemoteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	store := remote.NewStore(remote.Config{BaseURL: f.srv.URL})
	require.NoError(t, store.Initialize(ctx))

	svc := core.NewService(store)
	assert.True(t, svc.Features(ctx).CanSaveToServer)

	doc := blend.NewDocument()
	require.NoError(t, doc.Add("Imperium", blend.Item{Name: "Sword", Source: "Imperium"}))
	res, err := svc.SaveBlend(ctx, "Remote Mix", doc)
	require.NoError(t, err)
	assert.Equal(t, core.LocationServer, res.Location)

	loaded, err := svc.LoadBlend(ctx, "Remote_Mix.md")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalItems())

	list, err := svc.ListBlends(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, store.Delete(ctx, "Base_Imperium.md"), core.ErrProtected)
	require.NoError(t, svc.DeleteBlend(ctx, "Remote_Mix.md"))
	_, err = svc.LoadBlend(ctx, "Remote_Mix.md")
	assert.ErrorIs(t, err, core.ErrNotFound)

	catalogData, err := store.Fetch(ctx, server.ResourcesFile)
	require.NoError(t, err)
	assert.JSONEq(t, resources, string(catalogData))
}
