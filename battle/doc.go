// Package battle implements the controller that orchestrates a scripted
// conversation between two backends.
//
// A run starts with an initial exchange (A answers the user prompt, B answers
// A) and, in battle mode, continues with follow-up rounds in which each reply
// becomes the opposite backend's next prompt. Every run executes on a single
// worker goroutine; at most one run is active per Controller. Cancellation is
// cooperative and observed at round boundaries only, so a call that is
// already in flight always completes.
//
// Progress, replies, errors and the final transcript are reported through a
// core.Sink. Wrap slow presentation layers in sink.Queue so the worker never
// waits on them.
package battle
