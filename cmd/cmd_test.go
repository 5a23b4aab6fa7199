package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimnine/netbox-forager/query"
)

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"site=zrh", "status=active", "site=bsl", "site=gva", "q=a=b"})
	require.NoError(t, err)
	assert.Equal(t, query.Filters{
		"site":   []string{"zrh", "bsl", "gva"},
		"status": "active",
		"q":      "a=b",
	}, filters)

	_, err = parseFilters([]string{"site"})
	require.Error(t, err)
	_, err = parseFilters([]string{"=zrh"})
	require.Error(t, err)
}

func newNetbox(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := server.URL + "/api/"
		results := "[]"

		switch r.URL.Path {
		case "/api/status/":
			fmt.Fprint(w, `{"netbox-version": "3.7.8"}`)
			return
		case "/api/ipam/aggregates/":
			results = fmt.Sprintf(`[{"id": 1, "url": "%sipam/aggregates/1/", "prefix": "10.0.0.0/8", "vrf": null}]`, base)
		case "/api/ipam/prefixes/":
			results = fmt.Sprintf(`[{"id": 2, "url": "%[1]sipam/prefixes/2/", "prefix": "10.1.0.0/16", "vrf": null,
				"site": {"id": 3, "url": "%[1]sdcim/sites/3/", "name": "ZRH"}}]`, base)
		case "/api/dcim/sites/":
			results = fmt.Sprintf(`[{"id": 3, "url": "%sdcim/sites/3/", "name": "ZRH", "slug": "zrh"}]`, base)
		}

		count := 0
		if results != "[]" {
			count = 1
		}
		fmt.Fprintf(w, `{"count": %d, "results": %s}`, count, results)
	}))
	t.Cleanup(server.Close)

	return server
}

func writeConfig(t *testing.T, netboxURL string) string {
	t.Helper()

	dir := t.TempDir()
	config := fmt.Sprintf(`
netbox:
  api:
    url: %s/api/
    token: 0123456789abcdef
  sleep: 1ms
query:
  threads: 2
cache:
  backend: sqlite
  sqlite:
    path: %s
log:
  level: none
`, netboxURL, filepath.Join(dir, "cache.db"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	server := newNetbox(t)
	config := writeConfig(t, server.URL)
	metricsFile := filepath.Join(t.TempDir(), "forager.prom")

	t.Run("get", func(t *testing.T) {
		out, err := execute(t, "get", "dcim/sites", "-f", "slug=zrh", "--config", config, "--metrics-file", metricsFile)
		require.NoError(t, err)

		var objects []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &objects))
		require.Len(t, objects, 1)
		assert.Equal(t, "zrh", objects[0]["slug"])

		metrics, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(metrics), "netbox_forager_requests_total")
	})

	t.Run("tree without snapshot", func(t *testing.T) {
		_, err := execute(t, "tree", "ipam/prefixes", "--config", config)
		require.Error(t, err)
	})

	t.Run("fetch", func(t *testing.T) {
		out, err := execute(t, "fetch", "ipam/aggregates", "ipam/prefixes", "dcim/sites", "--config", config)
		require.NoError(t, err)
		assert.Contains(t, out, "from NetBox 3.7.8")
		assert.Contains(t, out, "ipam/prefixes")
	})

	t.Run("tree", func(t *testing.T) {
		out, err := execute(t, "tree", "ipam/prefixes", "2", "--config", config, "--depth", "1")
		require.NoError(t, err)

		var prefix map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &prefix))
		assert.Equal(t, "zrh", prefix["site"].(map[string]interface{})["slug"])
		assert.Equal(t, "10.0.0.0/8", prefix["aggregate"].(map[string]interface{})["prefix"])

		_, err = execute(t, "tree", "ipam/prefixes", "99", "--config", config)
		require.Error(t, err)
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := execute(t, "get", "nonsense", "--config", config)
		require.Error(t, err)

		_, err = execute(t, "tree", "ipam/prefixes", "x", "--config", config)
		require.Error(t, err)

		_, err = execute(t, "get", "dcim/sites", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

func TestEndpointsCommand(t *testing.T) {
	out, err := execute(t, "endpoints")
	require.NoError(t, err)
	assert.Contains(t, out, "ipam/prefixes")
	assert.Contains(t, out, "^prefix$")
}
