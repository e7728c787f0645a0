// Copyright 2026 WinoFPGA Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package profiler records wall-clock tick intervals for named execution
// phases in a fixed-capacity event ring and aggregates totals per tag.
//
// A phase is bracketed by BeginEvent/EndEvent; the returned handle makes
// nesting and overlap safe. The ring wraps silently once MaxEvents are
// recorded, matching the embedded profiler it mirrors: profiling is
// best-effort and never affects kernel results.
package profiler

import (
	"fmt"
	"io"
	"time"
)

// MaxEvents is the event ring capacity.
const MaxEvents = 1024

// Profiler is a begin/end event recorder. Not safe for concurrent use.
type Profiler struct {
	clock func() int64

	tags  [MaxEvents]string
	start [MaxEvents]int64
	end   [MaxEvents]int64
	n     int
}

// New returns a profiler ticking in nanoseconds.
func New() *Profiler {
	return NewWithClock(func() int64 { return time.Now().UnixNano() })
}

// NewWithClock returns a profiler using the given tick source.
func NewWithClock(clock func() int64) *Profiler {
	return &Profiler{clock: clock}
}

// BeginEvent opens a timed region and returns its handle. An event left
// open counts -1 ticks until EndEvent closes it.
func (p *Profiler) BeginEvent(tag string) uint32 {
	if p.n == MaxEvents {
		p.n = 0
	}
	p.tags[p.n] = tag
	p.start[p.n] = p.clock()
	p.end[p.n] = p.start[p.n] - 1
	handle := uint32(p.n)
	p.n++
	return handle
}

// EndEvent closes the timed region identified by handle.
func (p *Profiler) EndEvent(handle uint32) {
	if handle >= MaxEvents {
		panic(fmt.Sprintf("profiler: event handle %d out of range", handle))
	}
	p.end[handle] = p.clock()
}

// TotalTicks returns the summed duration of all recorded events.
func (p *Profiler) TotalTicks() int64 {
	var ticks int64
	for i := 0; i < p.n; i++ {
		ticks += p.end[i] - p.start[i]
	}
	return ticks
}

// Reset discards all recorded events.
func (p *Profiler) Reset() { p.n = 0 }

// Log writes one line per event.
func (p *Profiler) Log(w io.Writer) {
	for i := 0; i < p.n; i++ {
		fmt.Fprintf(w, "%s took %d ticks\n", p.tags[i], p.end[i]-p.start[i])
	}
}

// LogCsv writes every event as CSV rows.
func (p *Profiler) LogCsv(w io.Writer) {
	fmt.Fprintln(w, `"Event","Tag","Ticks"`)
	for i := 0; i < p.n; i++ {
		fmt.Fprintf(w, "%d,%s,%d\n", i, p.tags[i], p.end[i]-p.start[i])
	}
}

// LogTicksPerTag writes total ticks per unique tag, in first-appearance
// order, followed by the overall total.
func (p *Profiler) LogTicksPerTag(w io.Writer) {
	type tagTotal struct {
		tag   string
		ticks int64
	}
	var totals []tagTotal
	var all int64
	for i := 0; i < p.n; i++ {
		ticks := p.end[i] - p.start[i]
		all += ticks
		found := false
		for j := range totals {
			if totals[j].tag == p.tags[i] {
				totals[j].ticks += ticks
				found = true
				break
			}
		}
		if !found {
			totals = append(totals, tagTotal{tag: p.tags[i], ticks: ticks})
		}
	}
	fmt.Fprintln(w, `"Unique Tag","Total ticks across all events with that tag."`)
	for _, t := range totals {
		fmt.Fprintf(w, "%s, %d\n", t.tag, t.ticks)
	}
	fmt.Fprintf(w, "total number of ticks, %d\n", all)
}
