// Package state keeps per-user conversation sessions for Telegram bots.
// Stores are keyed by Telegram user id and hold a caller-defined session
// value, so the package stays independent of any bot's dialogue model.
package state
