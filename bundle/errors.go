package bundle

import (
	"errors"
	"fmt"
)

var (
	// ErrLabelCapacity marks a section whose label counter no longer fits
	// the configured digit width. Labels never wrap around.
	ErrLabelCapacity = errors.New("label capacity exceeded")

	// ErrLayoutDiverged marks an index whose page count failed to settle
	// within the layout pass cap.
	ErrLayoutDiverged = errors.New("index layout did not converge")
)

// SourceError reports a document whose bytes could not be opened.
type SourceError struct {
	ID   string
	Name string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("document %q (%s): %v", e.Name, e.ID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SubsetError reports an invalid page selection. Index is the offending
// 0-based page, or -1 when the selection was empty; Pages is the page count
// of the source the selection was checked against.
type SubsetError struct {
	ID    string
	Name  string
	Index int
	Pages int
}

func (e *SubsetError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("document %q (%s): empty page selection", e.Name, e.ID)
	}
	return fmt.Sprintf("document %q (%s): selected page %d outside 0..%d", e.Name, e.ID, e.Index, e.Pages-1)
}
