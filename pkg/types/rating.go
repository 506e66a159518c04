package types

import "strings"

// MaxStars is the top of the rating scale
const MaxStars = 5

// Rating is the tri-state star rating of an image: unknown (no sidecar read
// yet or none exists), explicitly unrated (0), or rated 1-5.
type Rating struct {
	Known bool `json:"known"`
	Stars int  `json:"stars"`
}

// NewRating returns a known rating with the stars clamped to the valid range
func NewRating(stars int) Rating {
	return Rating{Known: true, Stars: ClampStars(stars)}
}

// ClampStars clamps a star count into [0, MaxStars]
func ClampStars(stars int) int {
	if stars < 0 {
		return 0
	}
	if stars > MaxStars {
		return MaxStars
	}
	return stars
}

// Display returns the star count to present; unknown ratings display as 0
func (r Rating) Display() int {
	if !r.Known {
		return 0
	}
	return r.Stars
}

// String renders the rating as a five-star bar
func (r Rating) String() string {
	n := r.Display()
	return strings.Repeat("★", n) + strings.Repeat("☆", MaxStars-n)
}
