// Package state tracks per-conversation pending input.
//
// A handler registers a Continuation for the next input of one kind from a chat;
// the input routes consult the Awaiter before any default handler, and a matching
// input consumes the registration exactly once. Registrations expire after a TTL
// and are bounded in number, so abandoned conversations do not accumulate.
package state
