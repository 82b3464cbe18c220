package log

import "sync"

// counter tracks how many times each deduplicated log format has been emitted.
type counter struct {
	mu   sync.Mutex
	seen map[string]int
}

func newCounter() *counter {
	return &counter{seen: make(map[string]int)}
}

func (c *counter) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[key]
}

func (c *counter) increment(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[key]++
	return c.seen[key]
}

// reset forgets a key so that a suppressed message can be logged again.
func (c *counter) reset(key string) {
	c.mu.Lock()
	delete(c.seen, key)
	c.mu.Unlock()
}
