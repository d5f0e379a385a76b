// Package hardware provides the device's actuators and inputs.
//
// LEDs implement pattern.Actuator: LogLED for development hosts and
// SysfsLED for Linux LED class devices. Buttons only ever post to the event
// bridge: SignalButton is driven by SIGUSR1 (kill -USR1 <pid>) and
// SimulatedButton presses itself on a PostEvery schedule.
package hardware
