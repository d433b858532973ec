// Package gqlquery splits a GraphQL request document into its top-level operation and fragment blocks
// and extracts the sibling fields, variable definitions and variable usages of each block. It works on the
// raw text and keeps exact byte offsets so callers can rewrite the request without regenerating it.
package gqlquery

type SegmentKind int

const (
	KindOperation SegmentKind = iota
	KindFragment
)

func (k SegmentKind) String() string {
	if k == KindFragment {
		return "fragment"
	}
	return "operation"
}

// Segment is one top-level brace-delimited block of a request. Start/End are absolute offsets into the
// parsed document, BodyStart/BodyEnd delimit the text between the outermost braces.
type Segment struct {
	Kind      SegmentKind
	Start     int
	Length    int
	BodyStart int
	BodyEnd   int
	// Text is the raw segment, header included.
	Text string
	Body string

	// Operation only.
	Fields     []Field
	Parameters []ParameterDefinition

	// Fragment only.
	FragmentType string
	Variables    []string

	// Removed marks a fragment, or an operation with nothing left to select, for erasure as a whole.
	Removed bool
}

func (s *Segment) End() int {
	return s.Start + s.Length
}

// Header returns the text preceding the opening brace, e.g. "query Hero($id: ID!) ".
func (s *Segment) Header() string {
	return s.Text[:s.BodyStart-1-s.Start]
}

func (s *Segment) IsFragment() bool {
	return s.Kind == KindFragment
}

// FieldSpan returns the absolute [start, end) range of a field of this segment.
func (s *Segment) FieldSpan(f Field) (int, int) {
	return s.BodyStart + f.Start, s.BodyStart + f.End
}

// ParameterSpan returns the absolute [start, end) range of a parameter definition of this segment.
func (s *Segment) ParameterSpan(p ParameterDefinition) (int, int) {
	return s.Start + p.Start, s.Start + p.End
}

// AllFieldsRemoved reports whether the operation has nothing left to select.
func (s *Segment) AllFieldsRemoved() bool {
	for _, f := range s.Fields {
		if !f.Removed {
			return false
		}
	}
	return true
}

// Field is a top-level selection of an operation. Start/End are relative to the segment body and include
// the alias prefix and everything up to the next sibling.
type Field struct {
	Name       string
	Definition string
	Start      int
	End        int
	Variables  []string
	Removed    bool
}

// ParameterDefinition is a `$name: Type` declaration of an operation header. Start/End are relative to the
// segment start.
type ParameterDefinition struct {
	Name       string
	Type       string
	Definition string
	Start      int
	End        int
	Removed    bool
}
