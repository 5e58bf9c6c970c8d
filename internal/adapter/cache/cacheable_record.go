package cache

import (
	"fmt"
	"strings"

	"github.com/bornholm/paranoid/internal/core/model"
)

type Record[T any] interface {
	model.Record
	model.Cloner[T]
}

type CacheableRecord[T Record[T]] struct {
	record T
}

// CacheKeys implements [Cacheable].
func (r *CacheableRecord[T]) CacheKeys() []string {
	return []string{
		getRecordCacheKey(r.record.Kind(), r.record.ID()),
	}
}

// Record returns a copy of the cached record.
func (r *CacheableRecord[T]) Record() T {
	return r.record.Clone()
}

func NewCacheableRecord[T Record[T]](record T) *CacheableRecord[T] {
	return &CacheableRecord[T]{record.Clone()}
}

var _ Cacheable = &CacheableRecord[*model.Note]{}

func getRecordCacheKey(kind string, id model.RecordID) string {
	return getCompositeCacheKey(kind, id)
}

func getCompositeCacheKey(parts ...any) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteString("|")
		}
		sb.WriteString(fmt.Sprintf("%s", p))
	}
	return sb.String()
}
