// Package agent is the device application for Gray Logic Edge.
//
// It declares the five resources the cloud sees (button counter, LED
// pattern, blink, unregister and factory reset), binds their handlers and
// turns button presses into observable value changes. It holds no lock:
// Setup runs before the dispatcher starts and every handler, as well as
// Press, runs on the event bridge dispatcher.
package agent
