// Package plaintext prepares article text for the screen and for speech:
// markdown is reduced to plain prose and split into sentences small enough
// for a synthesizer to render in one call.
package plaintext
