package court

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

//Observer gets notified on each cache lookup
type Observer interface {
	CacheHit()
	CacheMiss()
}

//Cache memoizes built models by calibration content. Lookups may run concurrently; a
//model is built at most once per key at a time and published only after a successful build.
//Failed builds are not cached.
type Cache struct {
	mu     sync.RWMutex
	models map[string]*Model
	group  singleflight.Group
	obs    Observer
}

//NewCache returns an empty cache, obs may be nil
func NewCache(obs Observer) *Cache {
	return &Cache{models: make(map[string]*Model), obs: obs}
}

//Model returns the model of given calibration, building it on first use
func (c *Cache) Model(cal Calibration, opts ...Option) (*Model, error) {
	o := newBuildOptions(opts)
	return c.Load(Key(cal, o.netOffset), func() (*Model, error) {
		return Build(cal, opts...)
	})
}

//Load returns the model cached under key, or runs build and caches its result. Callers that
//key by raw payload bytes use it to skip parsing on a hit.
func (c *Cache) Load(key string, build func() (*Model, error)) (*Model, error) {
	c.mu.RLock()
	m, ok := c.models[key]
	c.mu.RUnlock()
	if ok {
		c.hit()
		return m, nil
	}
	c.miss()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		m, ok := c.models[key]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}

		m, err := build()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.models[key] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

//Len returns the number of cached models
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

func (c *Cache) hit() {
	if c.obs != nil {
		c.obs.CacheHit()
	}
}

func (c *Cache) miss() {
	if c.obs != nil {
		c.obs.CacheMiss()
	}
}
