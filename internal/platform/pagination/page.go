// Package pagination normalizes page sizes for read-back queries.
package pagination

// Config configures page size normalization.
type Config struct {
	Default int
	Max     int
}

// ClampLimit applies defaults and bounds for read-back page sizes.
func ClampLimit(value int, cfg Config) int {
	limit := value
	if limit <= 0 {
		limit = cfg.Default
	}
	if cfg.Max > 0 && limit > cfg.Max {
		limit = cfg.Max
	}
	if limit <= 0 {
		limit = 1
	}
	return limit
}
