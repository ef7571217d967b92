package ops

import (
	"strconv"
	"strings"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/errors"
)

// Reasons reported when a save candidate is not inserted.
const (
	SkipDuplicate = "duplicate"
	SkipEmpty     = "empty"
)

// capacityOf returns the configured capacity, or the default when unset.
func capacityOf(cfg *config.Config) int {
	if cfg == nil || cfg.Capacity <= 0 {
		return config.DefaultCapacity
	}
	return cfg.Capacity
}

// limitOf applies the default and the capacity ceiling to a requested limit.
func limitOf(cfg *config.Config, limit int) int {
	if limit <= 0 {
		limit = config.DefaultLimit
		if cfg != nil && cfg.DefaultLimit > 0 {
			limit = cfg.DefaultLimit
		}
	}
	return min(limit, capacityOf(cfg))
}

// ParseIndex parses a relative index argument.
// Anything other than a base-10 non-negative integer is INVALID_ARGUMENT;
// range checking is left to Resolve.
func ParseIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !IsIndex(s) {
		return 0, errors.NewInvalidArgument("index must be a non-negative integer")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidArgument("index out of range")
	}
	return n, nil
}

// IsIndex reports whether s is made only of ASCII digits.
func IsIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
