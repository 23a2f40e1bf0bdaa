// Package speech reads articles aloud through one of two interchangeable
// engines.
//
// The Adapter prefers the primary (local) engine. Every primary session is
// probed: if the engine has not confirmed audio within ProbeTimeout and is
// not speaking, or fails before audio begins, the adapter cancels it,
// switches to the fallback (remote) engine for good and replays the same
// request there. Callers only see a late start.
//
// Each Speak returns an Utterance whose state moves
// Idle → Starting → Playing (⇄ Paused) → Ended.
package speech
