package cache

// Store is a key/value cache of synthesized audio.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Compressed)(nil)
)
