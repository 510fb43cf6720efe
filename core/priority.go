package core

import "strconv"

// Priority is a signed ordering key for handler scheduling.  Lower
// values run earlier.  Priorities are compared globally across the
// whole active frontier of a tree, not only among siblings.
type Priority int

// Named priority levels.  Any int is a valid Priority; these are just
// the conventional stops.
const (
	Critical Priority = -100
	High     Priority = -50
	Normal   Priority = 0
	Low      Priority = 50
	Minimal  Priority = 100
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	case Minimal:
		return "minimal"
	}
	return strconv.Itoa(int(p))
}
