package layout

type cache struct {
	byName map[string]Frame
}

func newCache() *cache {
	return &cache{byName: make(map[string]Frame, 64)}
}

func (c *cache) get(name string) (Frame, bool) {
	if c == nil {
		return Frame{}, false
	}
	f, ok := c.byName[name]
	return f, ok
}

func (c *cache) put(name string, f Frame) {
	if c == nil {
		return
	}
	c.byName[name] = f
}
