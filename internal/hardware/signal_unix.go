//go:build unix

package hardware

import (
	"os"
	"syscall"
)

// PressSignal is the signal treated as a button press.
var PressSignal os.Signal = syscall.SIGUSR1
