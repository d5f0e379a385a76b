//go:build !unix

package hardware

import "os"

// PressSignal is the signal treated as a button press. Platforms without
// SIGUSR1 fall back to the interrupt signal.
var PressSignal os.Signal = os.Interrupt
