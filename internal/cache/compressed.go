package cache

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

// Compressed stores zstd-compressed values in another Store, so the same
// memory budget holds more speech. Values smaller than minCompressSize are
// kept as they are.
type Compressed struct {
	store   Store
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

const minCompressSize = 1024

// Frame header prefixes that mark how a value was stored.
const (
	rawValue  byte = 0
	zstdValue byte = 1
)

// NewCompressed wraps store.
func NewCompressed(store Store) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Compressed{store: store, encoder: enc, decoder: dec}, nil
}

// Get returns the decompressed value for key.
func (c *Compressed) Get(key string) ([]byte, bool) {
	data, ok := c.store.Get(key)
	if !ok || len(data) == 0 {
		return nil, false
	}
	switch data[0] {
	case rawValue:
		return data[1:], true
	case zstdValue:
		value, err := c.decoder.DecodeAll(data[1:], nil)
		if err != nil {
			log.Debug("dropping corrupt cache entry", "key", key, "error", err)
			c.delete(key)
			return nil, false
		}
		return value, true
	default:
		c.delete(key)
		return nil, false
	}
}

// Put compresses value when that makes it smaller and stores it under key.
func (c *Compressed) Put(key string, value []byte) error {
	if len(value) >= minCompressSize {
		data := c.encoder.EncodeAll(value, []byte{zstdValue})
		if len(data) < len(value)+1 {
			return c.store.Put(key, data)
		}
	}
	data := make([]byte, 0, len(value)+1)
	data = append(data, rawValue)
	return c.store.Put(key, append(data, value...))
}

func (c *Compressed) delete(key string) {
	if d, ok := c.store.(interface{ Delete(string) }); ok {
		d.Delete(key)
	}
}

// Close releases the codecs.
func (c *Compressed) Close() error {
	c.decoder.Close()
	return c.encoder.Close()
}
