package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittosync/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "list_file:")
	assert.Contains(t, out, "workers: 4")

	out, err = execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "\"list_file\"")
}

func TestImportAndRun(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "docs", "a.txt"), []byte("alpha"), 0644))

	const stamp = "05-May-2022 12:00:00"
	listPath := filepath.Join(dir, "list.csv")
	list := strings.Join([]string{
		"c1,docs/a.txt,NFS,1000,1000,-rw-r--r--," + stamp + "," + stamp + "," + stamp,
		"c2,docs,NFS,1000,1000,drwxr-xr-x," + stamp + "," + stamp + "," + stamp,
	}, "\n")
	require.NoError(t, os.WriteFile(listPath, []byte(list), 0644))

	dbPath := filepath.Join(dir, "archive")
	manifest := filepath.Join(dir, "manifest.xdr")
	configPath := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  level: WARN
  output: ` + filepath.Join(dir, "dittosync.log") + `
list_file: ` + listPath + `
source:
  type: cas
  cas:
    db_path: ` + dbPath + `
target:
  type: catalog
  catalog:
    path: ` + manifest + `
engine:
  workers: 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0644))

	out, err := execute(t, "cas", "import", "--config", configPath,
		"--db", dbPath, "--list", listPath, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "clips: 2")

	out, err = execute(t, "run", "--config", configPath, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "processed: 2")
	assert.Contains(t, out, "failed: 0")
	assert.Contains(t, out, "verified: 2")
	assert.Contains(t, out, "mismatched: 0")

	f, err := os.Open(manifest)
	require.NoError(t, err)
	defer f.Close()

	entries, err := catalog.ReadAll(f)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	paths := []string{entries[0].Path, entries[1].Path}
	assert.ElementsMatch(t, []string{"docs/a.txt", "docs"}, paths)

	out, err = execute(t, "cas", "gc", "--config", configPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "orphaned: 0")
}
