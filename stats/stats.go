// Package stats counts elements, rows and dropped tags of an export,
// logs the progress and exports all counters as prometheus metrics.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jocon37/OpenStreetMap-Data-Wrangling/element"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/log"
	"github.com/jocon37/OpenStreetMap-Data-Wrangling/shape"
)

// Tag outcome labels.
const (
	RejectedPostcode = "rejected_postcode"
	RewrittenStreet  = "rewritten_street"
	ProblemKey       = "problem_key"
	DroppedKey       = "dropped_key"
	EmptyKey         = "empty_key"
)

type Statistics struct {
	registry *prometheus.Registry

	elements    *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	rows        *prometheus.CounterVec
	tagOutcomes *prometheus.CounterVec

	nodes     *RpsCounter
	ways      *RpsCounter
	relations *RpsCounter

	mu       sync.Mutex
	rowCount map[string]int64
	outcome  shape.Outcome
	skips    int64

	stop chan struct{}
	done chan struct{}
}

func New() *Statistics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Statistics{
		registry: reg,
		elements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osmwrangle_elements_total",
				Help: "Total number of read elements",
			},
			[]string{"kind"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osmwrangle_skipped_elements_total",
				Help: "Total number of elements skipped because of missing attributes",
			},
			[]string{"kind"},
		),
		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osmwrangle_rows_total",
				Help: "Total number of written rows",
			},
			[]string{"table"},
		),
		tagOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osmwrangle_tag_outcomes_total",
				Help: "Total number of dropped or changed tags",
			},
			[]string{"outcome"},
		),
		nodes:     NewRpsCounter(),
		ways:      NewRpsCounter(),
		relations: NewRpsCounter(),
		rowCount:  make(map[string]int64),
	}
}

// Registry returns the registry of all metrics.
func (s *Statistics) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Statistics) counter(kind element.Kind) *RpsCounter {
	switch kind {
	case element.NODE:
		return s.nodes
	case element.WAY:
		return s.ways
	}
	return s.relations
}

func (s *Statistics) AddElement(kind element.Kind) {
	s.counter(kind).Add(1)
	s.elements.WithLabelValues(kind.String()).Inc()
}

func (s *Statistics) AddSkipped(kind element.Kind) {
	atomic.AddInt64(&s.skips, 1)
	s.skipped.WithLabelValues(kind.String()).Inc()
}

func (s *Statistics) AddRows(table string, n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.rowCount[table] += int64(n)
	s.mu.Unlock()
	s.rows.WithLabelValues(table).Add(float64(n))
}

func (s *Statistics) AddOutcome(o shape.Outcome) {
	s.mu.Lock()
	s.outcome.Add(o)
	s.mu.Unlock()
	for label, n := range map[string]int{
		RejectedPostcode: o.RejectedPostcodes,
		RewrittenStreet:  o.RewrittenStreets,
		ProblemKey:       o.ProblemKeys,
		DroppedKey:       o.DroppedKeys,
		EmptyKey:         o.EmptyKeys,
	} {
		if n > 0 {
			s.tagOutcomes.WithLabelValues(label).Add(float64(n))
		}
	}
}

type Summary struct {
	Nodes     int64
	Ways      int64
	Relations int64
	Skipped   int64
	Rows      map[string]int64
	Tags      shape.Outcome
}

func (s *Statistics) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make(map[string]int64, len(s.rowCount))
	for k, v := range s.rowCount {
		rows[k] = v
	}
	return Summary{
		Nodes:     s.nodes.Value(),
		Ways:      s.ways.Value(),
		Relations: s.relations.Value(),
		Skipped:   atomic.LoadInt64(&s.skips),
		Rows:      rows,
		Tags:      s.outcome,
	}
}

// Start logs the progress every interval until Stop is called.
func (s *Statistics) Start(interval time.Duration) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				s.tick()
				s.logProgress()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the progress log and logs the final counts.
func (s *Statistics) Stop() {
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	s.tick()
	s.logProgress()
}

func (s *Statistics) tick() {
	s.nodes.Tick()
	s.ways.Tick()
	s.relations.Tick()
}

func (s *Statistics) logProgress() {
	nodes := s.nodes.Count()
	ways := s.ways.Count()
	relations := s.relations.Count()
	log.Printf("[progress] Nodes: %7d/s (%9d) Ways: %7d/s (%8d) Relations: %6d/s (%7d) Skipped: %d",
		roundRps(nodes.LastRps, 100), nodes.Current,
		roundRps(ways.LastRps, 100), ways.Current,
		roundRps(relations.LastRps, 10), relations.Current,
		atomic.LoadInt64(&s.skips),
	)
}

func roundRps(rps float64, to int64) int64 {
	if rps != rps || rps < 0 {
		// NaN before the first tick
		return 0
	}
	return int64(rps) / to * to
}
