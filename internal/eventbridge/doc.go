// Package eventbridge moves work from asynchronous producers onto a single
// dispatcher goroutine.
//
// The device engine is single-threaded by contract: resource values, the
// registration state machine and notification trackers are only touched by
// code running on the dispatcher. Everything that happens elsewhere (an OS
// signal, a timer expiring, an MQTT callback) is turned into an Action and
// posted here.
//
// # Ordering
//
// Actions run one at a time, to completion, ordered by due time and then by
// submission order. Two actions posted for the same instant run FIFO.
//
// # Scheduling
//
//	bridge := eventbridge.New(eventbridge.Options{Logger: log})
//	go bridge.Run(ctx)
//
//	bridge.Post(func() { ... })                          // as soon as possible
//	bridge.PostAfter(500*time.Millisecond, func() { ... }) // once, later
//	h, _ := bridge.PostEvery(time.Minute, func() { ... })  // until Cancel(h)
//
// Producers never block on the dispatcher and never sleep; delays are held
// by a single timer armed for the earliest pending action.
//
// # Failure Handling
//
// A panicking action is recovered and logged. The dispatcher keeps running.
package eventbridge
