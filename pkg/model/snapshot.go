package model

import (
	"math"
)

// HeapSnapshot is the region layout of the heap captured at one point of one
// GC cycle, either before or after the collection.
//
// Metrics are computed on demand from Regions. A snapshot without regions is
// treated as empty: every metric degrades to 0 for it.
type HeapSnapshot struct {
	Cycle            int      `json:"cycle"`
	Regions          []Region `json:"regions"`
	IsFullCollection bool     `json:"is_full"`
	CollectionLabel  string   `json:"collection_label"`
}

// NewHeapSnapshot creates a snapshot for a completed region section.
func NewHeapSnapshot(cycle int, regions []Region, isFull bool, label string) *HeapSnapshot {
	return &HeapSnapshot{
		Cycle:            cycle,
		Regions:          regions,
		IsFullCollection: isFull,
		CollectionLabel:  label,
	}
}

// AddRegion appends a region and adopts its cycle.
func (s *HeapSnapshot) AddRegion(r Region) {
	s.Regions = append(s.Regions, r)
	s.Cycle = r.Cycle
}

// RegionCount returns the number of regions in the snapshot.
func (s *HeapSnapshot) RegionCount() int {
	return len(s.Regions)
}

// FreeCount returns the number of free regions.
func (s *HeapSnapshot) FreeCount() int {
	n := 0
	for _, r := range s.Regions {
		if r.Category.IsFree() {
			n++
		}
	}
	return n
}

// GridSize returns the side of the smallest square that fits every region.
func (s *HeapSnapshot) GridSize() int {
	return int(math.Ceil(math.Sqrt(float64(len(s.Regions)))))
}

// ExternalFragmentation measures how scattered the free regions are:
// 0 when all free regions form one run of consecutive indices, 100 when the
// heap has no free region at all.
//
// A run continues only while each free region's index is exactly one past the
// index of the region listed before it.
func (s *HeapSnapshot) ExternalFragmentation() int {
	if len(s.Regions) == 0 {
		return 0
	}

	lastIdx := -1
	maxRun := 0
	run := 0
	free := 0

	for _, r := range s.Regions {
		if r.Category.IsFree() {
			free++
			if lastIdx+1 == r.Index {
				run++
			} else {
				run = 1
			}
		} else {
			run = 0
		}
		if run > maxRun {
			maxRun = run
		}
		lastIdx = r.Index
	}

	if free == 0 {
		return 100
	}

	return percent(1.0 - float64(maxRun)/float64(free))
}

// InternalFragmentation measures how unevenly used memory is spread across
// regions: 1 - sum(u^2) / (100 * sum(u)) with u the occupancy percent.
func (s *HeapSnapshot) InternalFragmentation() int {
	var linear, squared float64
	for _, r := range s.Regions {
		u := float64(r.OccupancyPercent)
		linear += u
		squared += u * u
	}
	if linear == 0 {
		return 0
	}
	return percent(1.0 - squared/(100.0*linear))
}

// FreePercent returns the share of free regions in the heap.
func (s *HeapSnapshot) FreePercent() int {
	if len(s.Regions) == 0 {
		return 0
	}
	return percent(float64(s.FreeCount()) / float64(len(s.Regions)))
}

// Metrics computes all three fragmentation metrics at once.
func (s *HeapSnapshot) Metrics() Metrics {
	return Metrics{
		External: s.ExternalFragmentation(),
		Internal: s.InternalFragmentation(),
		Free:     s.FreePercent(),
	}
}

// Metrics holds the fragmentation metrics of one snapshot.
type Metrics struct {
	External int `json:"ext"`
	Internal int `json:"int"`
	Free     int `json:"free"`
}

// percent converts a ratio to a rounded, clamped percentage.
func percent(ratio float64) int {
	p := int(math.Round(ratio * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
