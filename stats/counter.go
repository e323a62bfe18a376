package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

type ElementCount struct {
	Current int64
	Rps     float64
	LastRps float64
}

func NewRpsCounter() *RpsCounter {
	return &RpsCounter{
		mu:       &sync.Mutex{},
		lastTick: time.Now(),
	}
}

// RpsCounter counts elements and their rate since the start and since
// the last Tick.
type RpsCounter struct {
	counter  int64
	lastAdd  int64
	lastRps  float64
	start    time.Time
	stop     time.Time
	lastTick time.Time
	updated  bool
	mu       *sync.Mutex
}

func (r *RpsCounter) Add(n int) {
	atomic.AddInt64(&r.counter, int64(n))
	atomic.AddInt64(&r.lastAdd, int64(n))
	if n > 0 {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.start.IsZero() {
			r.start = time.Now()
		}
		r.updated = true
	}
}

func (r *RpsCounter) Value() int64 {
	return atomic.LoadInt64(&r.counter)
}

// Rps returns the rate between the first Add and the last Tick with
// updates.
func (r *RpsCounter) Rps() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	secs := r.stop.Sub(r.start).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&r.counter)) / secs
}

// LastRps returns the rate between the last two calls to Tick.
func (r *RpsCounter) LastRps() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRps
}

func (r *RpsCounter) Count() ElementCount {
	return ElementCount{
		Current: r.Value(),
		Rps:     r.Rps(),
		LastRps: r.LastRps(),
	}
}

func (r *RpsCounter) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if r.updated {
		r.stop = now
		r.updated = false
	}
	added := atomic.SwapInt64(&r.lastAdd, 0)
	if secs := now.Sub(r.lastTick).Seconds(); secs > 0 {
		r.lastRps = float64(added) / secs
	}
	r.lastTick = now
}
