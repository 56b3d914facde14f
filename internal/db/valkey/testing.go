package valkey

import "github.com/redis/rueidis"

// NewIndexForTest creates an Index with the provided rueidis client (test-only).
func NewIndexForTest(c rueidis.Client, cfg Config) *Index {
	return newIndex(c, cfg)
}
