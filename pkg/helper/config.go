package helper

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDirEnv names a directory searched before the working directory
	ConfigDirEnv = "TASKFLOW_CONFIG_DIR"
	// SystemConfigDir is returned when no candidate holds the file
	SystemConfigDir = "/etc/taskflow"
)

// GetCfgPath resolves a configuration file name to a path.
//
// An absolute filename is returned unchanged. Otherwise the first existing
// file among $TASKFLOW_CONFIG_DIR/{filename}, ./{filename} and
// ./configs/{filename} wins, and /etc/taskflow/{filename} is the fallback
// even when it does not exist.
func GetCfgPath(filename string) string {
	if filename == "" {
		panic("filename cannot be empty")
	}
	if filepath.IsAbs(filename) {
		return filename
	}
	for _, dir := range candidateDirs() {
		if p := existing(filepath.Join(dir, filename)); p != "" {
			return p
		}
	}
	return filepath.Join(SystemConfigDir, filename)
}

func candidateDirs() []string {
	var dirs []string
	if env := os.Getenv(ConfigDirEnv); env != "" {
		dirs = append(dirs, env)
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		dirs = append(dirs, wd, filepath.Join(wd, "configs"))
	}
	return dirs
}

func existing(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	return abs
}
