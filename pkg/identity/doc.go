// Package identity defines the minimal view of the identity provider the
// onboarding flow consumes: whether auth is ready, whether a user is signed
// in, and who that user is. The core never mutates identity state.
//
// MemoryProvider is an in-process implementation that fans state changes out
// to subscribers, keeping only the latest unread state per subscriber.
package identity
