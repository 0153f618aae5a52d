package dest

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps recently used destination Infos keyed by printer URI so
// repeated queries against the same destination reuse the fetched
// attribute tree and its lazily built views.
type Cache struct {
	infos *lru.Cache[string, *Info]
}

// NewCache builds an LRU cache holding up to size Infos.
func NewCache(size int) (*Cache, error) {
	infos, err := lru.New[string, *Info](size)
	if err != nil {
		return nil, err
	}
	return &Cache{infos: infos}, nil
}

func (c *Cache) Get(uri string) (*Info, bool) {
	if c == nil || uri == "" {
		return nil, false
	}
	return c.infos.Get(uri)
}

func (c *Cache) Add(uri string, info *Info) {
	if c == nil || uri == "" || info == nil {
		return
	}
	c.infos.Add(uri, info)
}

func (c *Cache) Remove(uri string) {
	if c == nil {
		return
	}
	c.infos.Remove(uri)
}
