// Package state provides a conversation-keyed FSM/session manager for
// Telegram bots. The session payload is a type parameter, so the package
// stays domain-agnostic and can be reused across bots.
package state
