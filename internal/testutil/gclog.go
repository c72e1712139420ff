package testutil

import (
	"fmt"
	"strings"
)

// GCLog renders synthetic region-level GC logs.
type GCLog struct {
	lines []string
}

// NewGCLog starts an empty log.
func NewGCLog() *GCLog {
	return &GCLog{}
}

// Start adds the gc,start line of a cycle.
func (g *GCLog) Start(cycle int, label string) *GCLog {
	g.lines = append(g.lines, fmt.Sprintf("[0.150s][info][gc,start    ] GC(%d) %s", cycle, label))
	return g
}

// Dump adds a region table for cycle. codes are the category codes of the
// regions in index order; every region reports used% occupancy except free
// ones. The table is closed by a Humongous regions summary.
func (g *GCLog) Dump(cycle int, used int, codes ...string) *GCLog {
	g.lines = append(g.lines, fmt.Sprintf("[0.152s][trace][gc,heap,region] GC(%d) Heap Regions: E=young(eden), S=young(survivor), O=old, HS=humongous(starts), HC=humongous(continues), CS=collection set, F=free", cycle))
	for i, code := range codes {
		u := used
		if code == "F" {
			u = 0
		}
		g.lines = append(g.lines, fmt.Sprintf("[0.152s][trace][gc,heap,region] GC(%d) |%4d|0x0000000680000000, 0x0000000680000000, 0x0000000680400000|%3d%%|%2s|  |TAMS 0x0000000680000000| PB 0x0000000680000000| Untracked",
			cycle, i, u, code))
	}
	return g.Humongous(cycle, 0, 0)
}

// Humongous adds a humongous region summary line.
func (g *GCLog) Humongous(cycle, before, after int) *GCLog {
	g.lines = append(g.lines, fmt.Sprintf("[0.159s][info][gc,heap     ] GC(%d) Humongous regions: %d->%d", cycle, before, after))
	return g
}

// Line appends a raw line.
func (g *GCLog) Line(line string) *GCLog {
	g.lines = append(g.lines, line)
	return g
}

// String returns the log text.
func (g *GCLog) String() string {
	return strings.Join(g.lines, "\n") + "\n"
}
