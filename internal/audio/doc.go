// Package audio plays 16-bit PCM through the system output using oto/v3 and
// converts between the sample formats produced by the speech engines.
package audio
