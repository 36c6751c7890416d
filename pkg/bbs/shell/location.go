package shell

import "strconv"

// Location is where a session currently is: the overboard, a board, or a
// thread on a board. The concrete types are Overboard, Board and Thread.
type Location interface {
	// Display is the name shown in the shell prompt.
	Display() string

	isLocation()
}

// Overboard is the meta view listing boards. No threads live here.
type Overboard struct{}

// Board is a board's thread listing.
type Board struct {
	Name string
}

// Thread is one thread, identified by its root post, on a board.
type Thread struct {
	Board  string
	RootID uint
}

func (Overboard) Display() string { return "main" }
func (b Board) Display() string   { return b.Name }
func (t Thread) Display() string  { return t.Board }

func (Overboard) isLocation() {}
func (Board) isLocation()     {}
func (Thread) isLocation()    {}

// boardOf returns the board a location is on, if any.
func boardOf(loc Location) (string, bool) {
	switch l := loc.(type) {
	case Board:
		return l.Name, true
	case Thread:
		return l.Board, true
	default:
		return "", false
	}
}

// String implements fmt.Stringer for logs.
func (t Thread) String() string {
	return t.Board + "#" + strconv.FormatUint(uint64(t.RootID), 10)
}
