// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing exchanges and transcripts. These helpers are
// not intended for production usage.
package testutil
