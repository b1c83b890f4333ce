package ruleset

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

const defaultCacheSize = 128

// Cache memoizes evaluated configs per ruleset version id.
//
// Versions are immutable, so a successful parse never needs to be redone;
// failed parses are not cached and surface the same errors on every call.
type Cache struct {
	configs *lru.Cache
}

// NewCache creates a config cache holding up to size entries.
// A non-positive size falls back to the default.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	configs, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create config cache: %w", err)
	}
	return &Cache{configs: configs}, nil
}

// Resolve returns the typed config for a ruleset version, evaluating the
// raw document on first use.
func (c *Cache) Resolve(versionID string, raw []byte) (Config, error) {
	if c != nil && c.configs != nil {
		if cached, ok := c.configs.Get(versionID); ok {
			if cfg, ok := cached.(Config); ok {
				return cfg, nil
			}
		}
	}

	cfg, err := EvaluateStrict(raw)
	if err != nil {
		return Config{}, err
	}

	if c != nil && c.configs != nil {
		c.configs.Add(versionID, cfg)
	}
	return cfg, nil
}
