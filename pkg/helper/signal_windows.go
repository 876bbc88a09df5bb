//go:build windows

package helper

import "os"

var probeSignal = os.Interrupt
