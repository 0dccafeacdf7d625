package rules

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/solatis/vizconf/internal/spec"
	"github.com/solatis/vizconf/internal/types"
)

// cacheKey identifies a selection by absolute type and criteria hash.
type cacheKey struct {
	typeID   string
	criteria uint64
}

// cachedSelection is valid only while the store is at generation.
// criteria is kept to rule out hash collisions on lookup.
type cachedSelection struct {
	generation uint64
	criteria   types.Criteria
	config     types.Spec
}

// selectionCache memoizes merged selections. Results are cloned on the way in
// and on the way out, so callers never share maps with the cache.
type selectionCache struct {
	lru *lru.Cache[cacheKey, cachedSelection]
}

func newSelectionCache(size int) (*selectionCache, error) {
	c, err := lru.New[cacheKey, cachedSelection](size)
	if err != nil {
		return nil, err
	}
	return &selectionCache{lru: c}, nil
}

// key hashes criteria. ok is false for criteria hashstructure cannot handle;
// those selections bypass the cache.
func (c *selectionCache) key(typeID string, criteria types.Criteria) (cacheKey, bool) {
	h, err := hashstructure.Hash(criteria, hashstructure.FormatV2, nil)
	if err != nil {
		return cacheKey{}, false
	}
	return cacheKey{typeID: typeID, criteria: h}, true
}

// get returns a clone of the cached result. found distinguishes a cached
// "no configuration" (nil config) from a miss.
func (c *selectionCache) get(key cacheKey, criteria types.Criteria, generation uint64) (config types.Spec, found bool) {
	cached, ok := c.lru.Get(key)
	if !ok || cached.generation != generation || !reflect.DeepEqual(cached.criteria, criteria) {
		return nil, false
	}
	return spec.CloneSpec(cached.config), true
}

func (c *selectionCache) put(key cacheKey, criteria types.Criteria, generation uint64, config types.Spec) {
	stored := types.Criteria(nil)
	if criteria != nil {
		stored = types.Criteria(spec.Clone(map[string]any(criteria)).(map[string]any))
	}
	c.lru.Add(key, cachedSelection{
		generation: generation,
		criteria:   stored,
		config:     spec.CloneSpec(config),
	})
}

func (c *selectionCache) purge() {
	c.lru.Purge()
}
