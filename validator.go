package confpub

import "fmt"

// Diagnostic describes a single problem found in HTML content.
// Line and Column are 1-based; zero means the location is unknown.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

// String formats the diagnostic with its location, if known.
func (d Diagnostic) String() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", d.Line, d.Column, d.Message)
	case d.Line > 0:
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	default:
		return d.Message
	}
}

// HTMLValidator checks an HTML fragment for syntax problems.
type HTMLValidator interface {
	// Validate returns every problem found. A non-nil error means the
	// validator itself failed and says nothing about the content.
	Validate(html string) ([]Diagnostic, error)
}
