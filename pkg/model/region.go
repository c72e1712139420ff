// Package model defines the core data structures used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Category represents the role a heap region plays in one GC cycle.
type Category int

const (
	CategoryFree                  Category = iota // F
	CategoryCollectionSet                         // CS
	CategoryEden                                  // E
	CategorySurvivor                              // S
	CategoryOld                                   // O
	CategoryHumongousStart                        // HS
	CategoryHumongousContinuation                 // HC
)

// ErrInvalidRegionCategory is returned when a region category code is not one of
// the codes emitted by the collector.
var ErrInvalidRegionCategory = errors.New("invalid region category")

var categoryCodes = map[string]Category{
	"F":  CategoryFree,
	"CS": CategoryCollectionSet,
	"E":  CategoryEden,
	"S":  CategorySurvivor,
	"O":  CategoryOld,
	"HS": CategoryHumongousStart,
	"HC": CategoryHumongousContinuation,
}

// ParseCategory decodes a short category code such as "E" or " HS".
func ParseCategory(code string) (Category, error) {
	c, ok := categoryCodes[strings.TrimSpace(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRegionCategory, code)
	}
	return c, nil
}

// Code returns the short code the collector uses for the category.
func (c Category) Code() string {
	switch c {
	case CategoryFree:
		return "F"
	case CategoryCollectionSet:
		return "CS"
	case CategoryEden:
		return "E"
	case CategorySurvivor:
		return "S"
	case CategoryOld:
		return "O"
	case CategoryHumongousStart:
		return "HS"
	case CategoryHumongousContinuation:
		return "HC"
	default:
		return "?"
	}
}

// String returns the human readable name of the category.
func (c Category) String() string {
	switch c {
	case CategoryFree:
		return "free"
	case CategoryCollectionSet:
		return "collection_set"
	case CategoryEden:
		return "eden"
	case CategorySurvivor:
		return "survivor"
	case CategoryOld:
		return "old"
	case CategoryHumongousStart:
		return "humongous_start"
	case CategoryHumongousContinuation:
		return "humongous_continuation"
	default:
		return "unknown"
	}
}

// IsFree reports whether the region holds no live data.
func (c Category) IsFree() bool {
	return c == CategoryFree
}

// ParseOccupancy decodes an occupancy field such as " 87%" into 0..100.
// Degraded logs may omit or garble the field, so anything unparsable yields 0.
func ParseOccupancy(raw string) int {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Region is one heap region observed during one GC cycle.
type Region struct {
	Index            int      `json:"index"`
	Category         Category `json:"category"`
	OccupancyPercent int      `json:"occupancy_percent"`
	Cycle            int      `json:"cycle"`
}

// NewRegion creates a region from its raw category code.
func NewRegion(index int, code string, cycle int, occupancy int) (Region, error) {
	c, err := ParseCategory(code)
	if err != nil {
		return Region{}, err
	}
	return Region{
		Index:            index,
		Category:         c,
		OccupancyPercent: occupancy,
		Cycle:            cycle,
	}, nil
}

// String returns a short description of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region %d: category=%s cycle=%d used=%d%%", r.Index, r.Category.Code(), r.Cycle, r.OccupancyPercent)
}
