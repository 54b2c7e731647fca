// Package model defines the provider-agnostic Backend abstraction used by
// the battle controller, plus a scripted MockBackend for tests.
//
// Core goals:
//   - One call shape (Send) for both parties of a battle
//   - Classify every failure into the core.ErrorKind taxonomy at the
//     backend boundary, never deeper in the engine
//   - Keep request/response shapes minimal and transport independent
//
// Providers (model/openai for OpenAI-compatible endpoints such as xAI and
// OpenAI, model/anthropic for Claude) implement Backend on top of the vendor
// SDKs so the controller remains decoupled from them.
package model
