package types

// Direction selects which neighbor navigation moves to
type Direction int

const (
	// Backward moves toward index 0
	Backward Direction = -1
	// Forward moves toward the end of the collection
	Forward Direction = 1
)

// Offset is the cursor delta the direction stands for
func (d Direction) Offset() int {
	return int(d)
}

// String returns a human-readable representation
func (d Direction) String() string {
	switch d {
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}
