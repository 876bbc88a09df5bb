//go:build !windows

package helper

import "syscall"

// probeSignal probes a process without delivering a signal
var probeSignal = syscall.Signal(0)
