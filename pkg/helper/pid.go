package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetPIDPath returns the path to the PID file.
//
// Priority:
// 1. If filename is an absolute path, return it directly.
// 2. ./{filename} when its parent directory exists
// 3. Otherwise, fallback to /var/run/taskflow.pid
func GetPIDPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}

	currentDir := getPIDCurrentDir(filename)
	if currentDir != "" {
		return currentDir
	}

	// fallback
	return filepath.Join("/var/run", "taskflow.pid")
}

func getPIDCurrentDir(filename string) string {
	if filename == "" {
		return ""
	}

	currentDir, err := os.Getwd()
	if err != nil || currentDir == "" {
		return ""
	}

	candidatePath := filepath.Join(currentDir, filename)
	absPath, err := filepath.Abs(candidatePath)
	if err != nil {
		return ""
	}

	// Check if parent directory exists
	parentDir := filepath.Dir(absPath)
	if _, err := os.Stat(parentDir); err == nil {
		return absPath
	}

	return ""
}

// WritePID records the current process id at path. A file left by a
// running process is an error; a stale one is replaced.
func WritePID(path string) error {
	if pid, err := ReadPID(path); err == nil && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("process %d already running (pid file %s)", pid, path)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

// ReadPID returns the process id stored at path
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return pid, nil
}

// RemovePID deletes the pid file if it still names this process
func RemovePID(path string) error {
	pid, err := ReadPID(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	return os.Remove(path)
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(probeSignal) == nil
}
