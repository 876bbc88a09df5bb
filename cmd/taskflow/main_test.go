package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/ident"
)

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	f()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestRootCmd_Version(t *testing.T) {
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	rootCmd.SetArgs([]string{"version"})
	out := captureOutput(func() { _ = rootCmd.Execute() })
	assert.Contains(t, out, "taskflow version")
}

func TestRootCmd_Help(t *testing.T) {
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	rootCmd.SetArgs([]string{"--help"})
	assert.NoError(t, rootCmd.Execute())
}

func TestNewCounter(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mr := miniredis.RunT(t)
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.TaskflowConfig{}
	cfg.Tasks.CounterStore = cnst.CounterStoreDatabase
	c, err := newCounter(ctx, cfg, db, client)
	require.NoError(t, err)
	n, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ident.FirstNumber, n)

	cfg.Tasks.CounterStore = cnst.CounterStoreRedis
	cfg.Tasks.CounterKey = "test:task_num"
	c, err = newCounter(ctx, cfg, db, client)
	require.NoError(t, err)
	n, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ident.FirstNumber, n)

	cfg.Tasks.CounterStore = "etcd"
	_, err = newCounter(ctx, cfg, db, client)
	assert.Error(t, err)
}

func TestBootstrapCommand(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	conf := filepath.Join(dir, "taskflow.yaml")
	creds := filepath.Join(dir, "creds", "superadmin.txt")
	require.NoError(t, os.WriteFile(conf, []byte(`
database:
  type: sqlite
  dbname: `+filepath.Join(dir, "taskflow.db")+`
redis:
  addr: `+mr.Addr()+`
jwt:
  secret_key: 0123456789abcdef0123456789abcdef
bootstrap:
  credentials_file: `+creds+`
logger:
  level: error
`), 0o600))

	t.Cleanup(func() { rootCmd.SetArgs([]string{}); configPath = cnst.TaskflowYaml })
	rootCmd.SetArgs([]string{"bootstrap", "--conf", conf})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(creds)
	require.NoError(t, err)
	assert.Contains(t, string(data), "username: superadmin")

	// a second run leaves the existing account and file alone
	rootCmd.SetArgs([]string{"bootstrap", "--conf", conf})
	require.NoError(t, rootCmd.Execute())
	again, err := os.ReadFile(creds)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
