// Package drivers provides the animation drivers writing values into
// value nodes over successive frames.
//
// A driver passes the states Pending, Running and finally Finished or
// Stopped. The first frame observed after the start records the start
// time. Every running frame computes a new value for the driven node.
// On natural completion the exact final value is produced and the
// completion callback is called with finished=true; a stopped driver
// reports finished=false. The callback is called exactly once.
//
// Supported driver types:
//   - frames: a keyframed easing curve sampled at 60 frames per second
//   - timing: a named easing function applied over a duration
//   - spring: a damped harmonic oscillator integrated with
//     semi-implicit Euler steps
//   - decay: exponential velocity decay
package drivers
