package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/geosift/internal/config"
	"github.com/zjrosen/geosift/internal/searchapi"
)

func TestResolveConfigPath_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  limit: 3\n"), 0o600))

	got, err := resolveConfigPath(path, "")
	require.NoError(t, err)
	require.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "search:\n  limit: 3\n", string(data), "existing file must not be overwritten")
}

func TestResolveConfigPath_ExplicitMissingWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	got, err := resolveConfigPath(path, "")
	require.NoError(t, err)
	require.Equal(t, path, got)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Defaults().Server.URL, cfg.Server.URL)
}

func TestResolveConfigPath_PrefersLocal(t *testing.T) {
	t.Chdir(t.TempDir())
	home := t.TempDir()
	userPath := filepath.Join(home, ".config", "geosift", "config.yaml")
	require.NoError(t, config.WriteDefaultConfig(userPath))
	require.NoError(t, config.WriteDefaultConfig(localConfigPath))

	got, err := resolveConfigPath("", home)
	require.NoError(t, err)
	require.Equal(t, localConfigPath, got)
}

func TestResolveConfigPath_FallsBackToHome(t *testing.T) {
	t.Chdir(t.TempDir())
	home := t.TempDir()
	userPath := filepath.Join(home, ".config", "geosift", "config.yaml")
	require.NoError(t, config.WriteDefaultConfig(userPath))

	got, err := resolveConfigPath("", home)
	require.NoError(t, err)
	require.Equal(t, userPath, got)
}

func TestResolveConfigPath_NothingFoundWritesLocal(t *testing.T) {
	t.Chdir(t.TempDir())

	got, err := resolveConfigPath("", t.TempDir())
	require.NoError(t, err)
	require.Equal(t, localConfigPath, got)
	require.FileExists(t, localConfigPath)
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"name=cafe", "city=San Sebastián", "zip="})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "cafe", "city": "San Sebastián", "zip": ""}, got)

	got, err = parseFilters([]string{"note=a=b"})
	require.NoError(t, err)
	require.Equal(t, "a=b", got["note"])
}

func TestParseFilters_Errors(t *testing.T) {
	_, err := parseFilters([]string{"cafe"})
	require.ErrorContains(t, err, `invalid filter "cafe"`)

	_, err = parseFilters([]string{"=cafe"})
	require.Error(t, err)

	_, err = parseFilters([]string{"name=a", "name=b"})
	require.ErrorContains(t, err, "duplicate filter")
}

func TestOrderParams_FollowsSearchColumns(t *testing.T) {
	params, err := orderParams(map[string]string{"city": "bilbao", "name": "cafe"}, []string{"name", "address", "city"})
	require.NoError(t, err)
	require.Equal(t, []searchapi.Param{
		{Column: "name", Value: "cafe"},
		{Column: "city", Value: "bilbao"},
	}, params)
}

func TestOrderParams_UnknownColumn(t *testing.T) {
	_, err := orderParams(map[string]string{"owner": "x"}, []string{"name"})
	require.ErrorContains(t, err, `column "owner" is not searchable`)
}

// newSearchServer serves the three endpoints and records the last /search query.
func newSearchServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var lastQuery string
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/get_columns", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"columns": []string{"name", "city", "lat", "lon"}})
	})
	mux.HandleFunc("/get_search_columns", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"columns": []string{"name", "city"}})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.RawQuery
		writeJSON(w, map[string]any{
			"results": []map[string]any{
				{"name": "Cafe Iruña", "city": "Bilbao", "lat": 43.26, "lon": -2.93},
			},
			"time_taken_ms": 3.2,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &lastQuery
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		searchLimit, searchJSON, cfgFile = 0, false, ""
		searchCmd.Flags().Lookup("limit").Changed = false
		searchCmd.Flags().Lookup("json").Changed = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  limit: 7\ncache:\n  columns_ttl: 0s\n"), 0o600))
	return path
}

func TestSearchCommand_Table(t *testing.T) {
	srv, lastQuery := newSearchServer(t)

	out, err := runCommand(t, "search", "--config", writeConfig(t), "--server", srv.URL, "city=Bilbao", "name=cafe")
	require.NoError(t, err)
	require.Equal(t, "name=cafe&city=Bilbao&limit=7", *lastQuery)
	require.Contains(t, out, "Cafe Iruña")
	require.Contains(t, out, "1 results in 3.2 ms")
}

func TestSearchCommand_JSONWithLimit(t *testing.T) {
	srv, lastQuery := newSearchServer(t)

	out, err := runCommand(t, "search", "--config", writeConfig(t), "--server", srv.URL, "--json", "--limit", "2", "name=cafe")
	require.NoError(t, err)
	require.Equal(t, "name=cafe&limit=2", *lastQuery)

	var got presentationResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 1, got.Count)
	require.Equal(t, "Bilbao", got.Results[0]["city"])
}

func TestSearchCommand_RejectsUnsearchableColumn(t *testing.T) {
	srv, _ := newSearchServer(t)

	_, err := runCommand(t, "search", "--config", writeConfig(t), "--server", srv.URL, "lat=43")
	require.ErrorContains(t, err, "not searchable")
}

func TestColumnsCommand(t *testing.T) {
	srv, _ := newSearchServer(t)

	out, err := runCommand(t, "columns", "--config", writeConfig(t), "--server", srv.URL)
	require.NoError(t, err)

	var got map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []string{"name", "city", "lat", "lon"}, got["columns"])
	require.Equal(t, []string{"name", "city"}, got["search_columns"])
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map:\n  zoom: 42\n"), 0o600))

	_, err := runCommand(t, "columns", "--config", path)
	require.ErrorContains(t, err, "invalid config")
}

type presentationResult struct {
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}
