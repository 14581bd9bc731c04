package command

import "strconv"

// CoordinateKind tags how an axis value is interpreted.
type CoordinateKind int

const (
	Absolute CoordinateKind = iota
	Relative                // ~v
	Local                   // ^v
)

// CoordinatePart is a single axis value.
type CoordinatePart struct {
	Kind  CoordinateKind
	Value float64
}

func (p CoordinatePart) String() string {
	v := formatNumber(p.Value)
	switch p.Kind {
	case Relative:
		return "~" + v
	case Local:
		return "^" + v
	default:
		return v
	}
}

// Coordinate is a three-axis position.
type Coordinate struct {
	X, Y, Z CoordinatePart
}

func (c Coordinate) argument() {}

func (c Coordinate) String() string {
	return c.X.String() + " " + c.Y.String() + " " + c.Z.String()
}

// Here is `~0 ~0 ~0`, the executing position.
func Here() Coordinate {
	return RelativeCoordinate(0, 0, 0)
}

// RelativeCoordinate builds `~x ~y ~z`.
func RelativeCoordinate(x, y, z float64) Coordinate {
	return Coordinate{
		X: CoordinatePart{Kind: Relative, Value: x},
		Y: CoordinatePart{Kind: Relative, Value: y},
		Z: CoordinatePart{Kind: Relative, Value: z},
	}
}

// formatNumber prints the shortest decimal form: 1, 1.5, -0.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
