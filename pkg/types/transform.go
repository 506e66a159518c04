package types

import (
	"fmt"
	"strings"
)

// Transform represents the pending, not-yet-committed edits for one image.
// Rotation counts degrees clockwise and is always one of 0, 90, 180, 270.
type Transform struct {
	Rotation int  `json:"rotation_degrees"`
	FlipV    bool `json:"flip_vertical"`
	FlipH    bool `json:"flip_horizontal"`
}

// NormalizeRotation maps any multiple of 90, including negatives, into
// [0, 360)
func NormalizeRotation(degrees int) int {
	return ((degrees % 360) + 360) % 360
}

// Rotate returns the transform with delta degrees of clockwise rotation
// added. Counter-clockwise steps are negative deltas.
func (t Transform) Rotate(delta int) Transform {
	t.Rotation = NormalizeRotation(t.Rotation + delta)
	return t
}

// IsIdentity reports whether committing the transform would change nothing
func (t Transform) IsIdentity() bool {
	return t.Rotation == 0 && !t.FlipV && !t.FlipH
}

// String returns a human-readable representation
func (t Transform) String() string {
	if t.IsIdentity() {
		return "none"
	}
	parts := make([]string, 0, 3)
	if t.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotate %d", t.Rotation))
	}
	if t.FlipH {
		parts = append(parts, "flip-h")
	}
	if t.FlipV {
		parts = append(parts, "flip-v")
	}
	return strings.Join(parts, " ")
}
