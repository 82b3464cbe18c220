package log

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Profiler accumulates wall time per named stage. A nil *Profiler is valid and records nothing,
// so callers can pass one around unconditionally.
type Profiler struct {
	lock     sync.Mutex
	profiles map[string]time.Duration
	starts   map[string]time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		profiles: map[string]time.Duration{},
		starts:   map[string]time.Time{},
	}
}

func (p *Profiler) Start(name string) {
	if p == nil {
		return
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.starts[name] = time.Now()
}

// Stop adds the time since the matching Start to the stage total and returns it.
func (p *Profiler) Stop(name string) time.Duration {
	if p == nil {
		return 0
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	start, ok := p.starts[name]
	if !ok {
		return 0
	}
	delete(p.starts, name)

	elapsed := time.Since(start)
	p.profiles[name] += elapsed
	return elapsed
}

// Duration returns the accumulated time for a stage.
func (p *Profiler) Duration(name string) time.Duration {
	if p == nil {
		return 0
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	return p.profiles[name]
}

func (p *Profiler) Log(name string) {
	if p == nil {
		return
	}
	Profilef("%s: %s", p.Duration(name), name)
}

// LogAll logs every stage, largest first. Ties are ordered by name.
func (p *Profiler) LogAll() {
	if p == nil {
		return
	}

	p.lock.Lock()
	profiles := maps.Clone(p.profiles)
	p.lock.Unlock()

	names := maps.Keys(profiles)
	slices.SortFunc(names, func(a, b string) int {
		if profiles[a] != profiles[b] {
			if profiles[a] > profiles[b] {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		} else if a > b {
			return 1
		}
		return 0
	})

	for _, name := range names {
		Profilef("%s: %s", profiles[name], name)
	}
}
