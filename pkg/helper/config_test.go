package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCfgPath(t *testing.T) {
	// panic on empty
	assert.Panics(t, func() { GetCfgPath("") })

	// absolute path returns as-is
	abs := "/tmp/test.yaml"
	assert.Equal(t, abs, GetCfgPath(abs))

	// use temp dir
	old, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(old) })

	tmp := t.TempDir()
	_ = os.Chdir(tmp)

	// file in current directory
	f1 := "a.yaml"
	assert.NoError(t, os.WriteFile(f1, []byte("x"), 0o644))
	got := GetCfgPath(f1)
	exp, _ := filepath.EvalSymlinks(filepath.Join(tmp, f1))
	realGot, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, exp, realGot)

	// prefer ./configs second
	_ = os.Remove(filepath.Join(tmp, f1))
	_ = os.MkdirAll("configs", 0o755)
	assert.NoError(t, os.WriteFile(filepath.Join("configs", f1), []byte("x"), 0o644))
	got = GetCfgPath(f1)
	exp, _ = filepath.EvalSymlinks(filepath.Join(tmp, "configs", f1))
	realGot, _ = filepath.EvalSymlinks(got)
	assert.Equal(t, exp, realGot)

	// fallback when not found
	_ = os.Remove(filepath.Join(tmp, "configs", f1))
	got = GetCfgPath(f1)
	assert.Equal(t, filepath.Join(SystemConfigDir, f1), got)

	// a directory with the same name is not a config file
	assert.NoError(t, os.MkdirAll(f1, 0o755))
	assert.Equal(t, filepath.Join(SystemConfigDir, f1), GetCfgPath(f1))
}

func TestGetCfgPath_EnvDirWins(t *testing.T) {
	old, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(old) })
	wd := t.TempDir()
	_ = os.Chdir(wd)

	envDir := t.TempDir()
	t.Setenv(ConfigDirEnv, envDir)
	name := "taskflow.yaml"
	assert.NoError(t, os.WriteFile(filepath.Join(wd, name), []byte("x"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(envDir, name), []byte("x"), 0o644))

	exp, _ := filepath.EvalSymlinks(filepath.Join(envDir, name))
	realGot, _ := filepath.EvalSymlinks(GetCfgPath(name))
	assert.Equal(t, exp, realGot)

	// a missing file in the env dir falls through to the working directory
	other := "push-worker.yaml"
	assert.NoError(t, os.WriteFile(filepath.Join(wd, other), []byte("x"), 0o644))
	exp, _ = filepath.EvalSymlinks(filepath.Join(wd, other))
	realGot, _ = filepath.EvalSymlinks(GetCfgPath(other))
	assert.Equal(t, exp, realGot)
}
