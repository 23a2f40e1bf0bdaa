// Package cache keeps recently synthesized speech in memory so replaying an
// article, or flicking back to one, does not synthesize it again.
package cache
