// Package grid provides the room-and-corridor floor plan the fleet
// operates on.
//
// The floor has two rows: row 0 holds named rooms, row 1 is the
// corridor running beneath them. A corridor cell connects to its left
// and right neighbors and to the room directly above; a room connects
// only back down to the corridor. Every cell additionally connects to
// itself, so waiting in place is always a legal move.
package grid

import (
	"fmt"

	"github.com/elektrokombinacija/fleetplan/internal/core"
)

// DefaultRooms is the floor layout of the reference facility.
var DefaultRooms = []string{"in", "A", "B", "C", "out"}

// Floor is a two-row room/corridor layout implementing core.Graph.
//
// Cell IDs are row-major: rooms occupy 0..width-1, corridor cells
// occupy width..2*width-1.
type Floor struct {
	rooms  []string
	width  int
	byName map[string]core.CellID
}

// NewFloor builds a floor with the given room names, one room per
// corridor column.
func NewFloor(rooms []string) (*Floor, error) {
	if len(rooms) == 0 {
		return nil, fmt.Errorf("floor needs at least one room")
	}
	byName := make(map[string]core.CellID, len(rooms))
	for col, name := range rooms {
		if name == "" {
			return nil, fmt.Errorf("room at column %d has no name", col)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("duplicate room name %q", name)
		}
		byName[name] = core.CellID(col)
	}
	return &Floor{rooms: rooms, width: len(rooms), byName: byName}, nil
}

// Width returns the number of corridor columns.
func (f *Floor) Width() int { return f.width }

// NumCells returns the total cell count.
func (f *Floor) NumCells() int { return 2 * f.width }

// Rooms returns the room names in column order.
func (f *Floor) Rooms() []string { return f.rooms }

// RoomCell returns the cell of the named room.
func (f *Floor) RoomCell(name string) (core.CellID, bool) {
	c, ok := f.byName[name]
	return c, ok
}

// CorridorCell returns the corridor cell at the given column.
func (f *Floor) CorridorCell(col int) core.CellID {
	return core.CellID(f.width + col)
}

// IsRoom reports whether the cell is a room.
func (f *Floor) IsRoom(c core.CellID) bool {
	return int(c) >= 0 && int(c) < f.width
}

// CellName returns a human-readable name for the cell.
func (f *Floor) CellName(c core.CellID) string {
	if !f.Contains(c) {
		return fmt.Sprintf("cell-%d", c)
	}
	if f.IsRoom(c) {
		return f.rooms[c]
	}
	return fmt.Sprintf("corridor-%d", f.col(c))
}

func (f *Floor) col(c core.CellID) int { return int(c) % f.width }
func (f *Floor) row(c core.CellID) int { return int(c) / f.width }

// Contains implements core.Graph.
func (f *Floor) Contains(c core.CellID) bool {
	return int(c) >= 0 && int(c) < f.NumCells()
}

// Neighbors implements core.Graph. The cell itself is always included:
// waiting is a move like any other.
func (f *Floor) Neighbors(c core.CellID) []core.CellID {
	if !f.Contains(c) {
		return nil
	}
	col := f.col(c)
	if f.IsRoom(c) {
		// Rooms are dead ends: back down to the corridor, or wait.
		return []core.CellID{f.CorridorCell(col), c}
	}
	out := make([]core.CellID, 0, 4)
	if col > 0 {
		out = append(out, c-1)
	}
	if col < f.width-1 {
		out = append(out, c+1)
	}
	out = append(out, core.CellID(col)) // room above
	out = append(out, c)                // wait
	return out
}

// DistanceEstimate implements core.Graph with the Manhattan distance
// over the two-row layout. Room-to-room moves through the corridor cost
// two extra steps the estimate ignores, so it stays admissible under
// unit step costs.
func (f *Floor) DistanceEstimate(a, b core.CellID) int {
	dc := f.col(a) - f.col(b)
	if dc < 0 {
		dc = -dc
	}
	dr := f.row(a) - f.row(b)
	if dr < 0 {
		dr = -dr
	}
	return dc + dr
}
