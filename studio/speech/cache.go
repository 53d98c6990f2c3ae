package speech

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketAudio = []byte("audio")

// Cache stores synthesized audio in a bbolt file keyed by (voice, text).
type Cache struct {
	db *bolt.DB
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("OpenCache: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("OpenCache: mkdir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAudio)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("OpenCache: create bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// cacheKey hashes "voice#text" so long sentences stay well under bbolt's key limit.
func cacheKey(voice, text string) []byte {
	h := sha256.Sum256([]byte(voice + "#" + text))
	return h[:]
}

// Get returns the cached audio, if any.
func (c *Cache) Get(voice, text string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAudio).Get(cacheKey(voice, text))
		if v != nil {
			// bbolt slices are only valid inside the transaction.
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (c *Cache) Put(voice, text string, audio []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAudio).Put(cacheKey(voice, text), audio)
	})
}

// Len reports how many entries are cached.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketAudio).Stats().KeyN
		return nil
	})
	return n, err
}
