package selection

import (
	"encoding/json"
	"errors"
	"io/fs"
	"regexp"

	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"
)

// Cache is the fast local copy of a selection. *diskv.Diskv satisfies it.
type Cache interface {
	Read(key string) ([]byte, error)
	Write(key string, val []byte) error
	Erase(key string) error
}

// NewDiskCache opens a flat diskv store under dir.
func NewDiskCache(dir string) *diskv.Diskv {
	return diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: 256 * 1024,
	})
}

var unsafeKey = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// CacheKey is the storage key of a batch's cached selection.
func CacheKey(batchID string) string {
	return "selection-" + unsafeKey.ReplaceAllString(batchID, "_")
}

// readCached loads the cached ids under key. Missing, unreadable or malformed
// entries all read as an empty selection; malformed ones are erased.
func readCached(c Cache, key string, log *zap.Logger) ([]string, bool) {
	b, err := c.Read(key)
	if err != nil {
		if !isNotExist(err) {
			log.Warn("selection cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		log.Warn("discarding malformed cached selection", zap.String("key", key), zap.Error(err))
		if err := c.Erase(key); err != nil {
			log.Warn("selection cache erase failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return normalize(ids), true
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
