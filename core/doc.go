// Package core provides the shared vocabulary of the battle engine:
//
//   - RunConfig (immutable per-submission settings) and RunState (the
//     cooperative cancellation flag of one run)
//   - Exchange (one prompt/response unit attributed to a side and a round)
//   - Event and Sink (notifications flowing to the presentation layer)
//   - ErrorKind and Error (the error taxonomy shared by backends, the retry
//     policy and the controller)
//
// The package performs no I/O. Concrete backends live in model, the retry
// policy in retry, the state machine in battle and the transcript in
// transcript.
package core
