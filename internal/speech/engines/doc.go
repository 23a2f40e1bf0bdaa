// Package engines provides the speech engines behind the adapter: Piper, a
// local synthesizer run as a subprocess, and Remote, an HTTP text-to-speech
// service keyed by an API credential. Voice turns either synthesizer plus
// an audio output into a speech.Engine.
package engines
