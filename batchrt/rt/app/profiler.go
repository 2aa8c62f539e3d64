package app

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// Profiler keeps the last duration of named CPU scopes and a few frame
// counters for the debug log.
type Profiler struct {
	Scopes map[string]time.Duration
	Counts map[string]int
	Order  []string

	started map[string]time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:  make(map[string]time.Duration),
		Counts:  make(map[string]int),
		started: make(map[string]time.Time),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.started[name] = time.Now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.started[name]; ok {
		p.Scopes[name] = time.Since(start)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// GetStatsString lists scopes in first-seen order, then counters by name.
func (p *Profiler) GetStatsString() string {
	var sb strings.Builder
	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		fmt.Fprintf(&sb, "  %-15s: %.2f ms\n", name, float64(p.Scopes[name].Microseconds())/1000.0)
	}

	sb.WriteString("Stats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-15s: %d\n", k, p.Counts[k])
	}
	return sb.String()
}
