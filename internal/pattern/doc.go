// Package pattern plays LED blink patterns.
//
// A pattern is a colon-separated list of millisecond durations such as
// "500:200:500". Playback toggles the actuator, waits the first duration,
// toggles again, waits the second, and so on, and always ends with the
// actuator off. "500:200:500" therefore produces three toggles.
//
// Malformed patterns fail closed: Parse returns ErrInvalidPattern and no
// steps, so nothing is played.
//
// Two interpreters are provided:
//
//   - Player blocks the calling goroutine for the whole pattern. Called from
//     a bridge action it delays every other queued action.
//   - Sequencer schedules each step as its own delayed bridge action and
//     returns immediately. This is the default (pattern.mode: scheduled).
package pattern
