package model

import (
	"encoding/json"
)

// LayoutCell places one non-free region on the 2-D grid used by viewers.
// It serializes as a [row, column, code] triple.
type LayoutCell struct {
	Row    int
	Column int
	Code   int
}

// MarshalJSON encodes the cell as a three element array.
func (c LayoutCell) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{c.Row, c.Column, c.Code})
}

// UnmarshalJSON decodes a [row, column, code] triple.
func (c *LayoutCell) UnmarshalJSON(data []byte) error {
	var triple [3]int
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	c.Row, c.Column, c.Code = triple[0], triple[1], triple[2]
	return nil
}

// LayoutCode is the numeric encoding viewers use to color a category.
// Larger values are drawn darker; free regions are never drawn.
func (c Category) LayoutCode() int {
	switch c {
	case CategoryCollectionSet:
		return 10
	case CategoryEden:
		return 30
	case CategorySurvivor:
		return 60
	case CategoryOld:
		return 90
	case CategoryHumongousStart:
		return 120
	case CategoryHumongousContinuation:
		return 150
	default:
		return 0
	}
}

// Layout projects the snapshot onto its grid, omitting free regions.
func (s *HeapSnapshot) Layout() []LayoutCell {
	cells := make([]LayoutCell, 0, len(s.Regions))
	grid := s.GridSize()
	if grid == 0 {
		return cells
	}
	for _, r := range s.Regions {
		if r.Category.IsFree() {
			continue
		}
		cells = append(cells, LayoutCell{
			Row:    r.Index / grid,
			Column: r.Index % grid,
			Code:   r.Category.LayoutCode(),
		})
	}
	return cells
}

// CategoryMap returns the position-to-category mapping of the snapshot.
func (s *HeapSnapshot) CategoryMap() map[int]Category {
	m := make(map[int]Category, len(s.Regions))
	for _, r := range s.Regions {
		m[r.Index] = r.Category
	}
	return m
}
