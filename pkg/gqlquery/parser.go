package gqlquery

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedDocument = errors.New("malformed GraphQL document")

var closingBrackets = map[byte]byte{
	'{': '}',
	'(': ')',
}

// Parse splits query into its top-level segments. Each segment starts right after the previous one ends,
// so headers such as "query Name($v: T)" or "fragment F on T" belong to the segment they introduce.
func Parse(query string) ([]Segment, error) {
	var segments []Segment

	start := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '{' {
			continue
		}

		end, err := matchingBracket(query, i)
		if err != nil {
			return nil, err
		}

		segment := Segment{
			Kind:      KindOperation,
			Start:     start,
			Length:    end - start + 1,
			BodyStart: i + 1,
			BodyEnd:   end,
			Text:      query[start : end+1],
			Body:      query[i+1 : end],
		}

		header := query[start:i]
		if typeName, ok := fragmentType(header); ok {
			segment.Kind = KindFragment
			segment.FragmentType = typeName
			segment.Variables = VariableUsages(segment.Body)
		} else {
			segment.Parameters = ParameterDefinitions(header)
			segment.Fields, err = extractFields(segment.Body)
			if err != nil {
				return nil, fmt.Errorf("extracting fields of the segment at offset %d: %w", start, err)
			}
		}

		segments = append(segments, segment)
		start = end + 1
		i = end
	}

	return segments, nil
}

// matchingBracket returns the offset of the bracket closing the one at text[open]. Only brackets of the
// same kind are counted.
func matchingBracket(text string, open int) (int, error) {
	opening := text[open]
	closing, ok := closingBrackets[opening]
	if !ok {
		return 0, fmt.Errorf("%w: %q at offset %d is not an opening bracket", ErrMalformedDocument, opening, open)
	}

	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case opening:
			depth++
		case closing:
			depth--
		}
		if depth == 0 {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: unable to find the %q closing the %q at offset %d", ErrMalformedDocument, closing, opening, open)
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// fieldScanner walks a selection body and collects its top-level sibling fields.
type fieldScanner struct {
	body   string
	fields []Field

	inWord    bool
	wordStart int
	// aliasStart is -1 unless the pending field name was preceded by "alias:".
	aliasStart int
	// open is the index of the field whose span is still growing, -1 if none.
	open int
	// bare is true while the open field has neither arguments nor a sub-selection.
	bare bool
}

func extractFields(body string) ([]Field, error) {
	s := &fieldScanner{body: body, aliasStart: -1, open: -1}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case isNameByte(c):
			if s.open >= 0 {
				s.closeField(i)
			}
			if !s.inWord {
				s.inWord = true
				s.wordStart = i
			}
			if i == len(body)-1 {
				s.confirmWord(i + 1)
			}

		case c == ':':
			s.markAlias()

		case c == '#':
			// Comments run to the end of the line and stay inside the span of the field they follow.
			if s.inWord {
				s.confirmWord(i)
			}
			if eol := strings.IndexByte(body[i:], '\n'); eol >= 0 {
				i += eol
			} else {
				i = len(body)
			}

		case c == '.':
			if s.inWord {
				s.confirmWord(i)
			}
			if s.open >= 0 {
				s.closeField(i)
			}
			i = s.openSpread(i) - 1

		case c == '(' || c == '{':
			if s.inWord {
				s.confirmWord(i)
			}
			end, err := matchingBracket(body, i)
			if err != nil {
				return nil, err
			}
			s.bare = false
			i = end

		default:
			if s.inWord {
				s.confirmWord(i)
			}
		}
	}

	if s.open >= 0 {
		s.closeField(len(body))
	}

	return s.fields, nil
}

func (s *fieldScanner) confirmWord(end int) {
	s.fields = append(s.fields, Field{Name: s.body[s.wordStart:end]})
	s.open = len(s.fields) - 1
	s.inWord = false
	s.bare = true
}

// openSpread opens a field for the fragment spread starting at body[start] and returns the offset right after
// its token. A named spread `...Hero` is named "...Hero" and an inline fragment `... on Droid` is named
// "... on Droid", so schemas never know them as root fields.
func (s *fieldScanner) openSpread(start int) int {
	i := start
	for i < len(s.body) && s.body[i] == '.' {
		i++
	}
	name, end := s.nameAfter(i)
	token := "..." + name
	if name == "on" {
		typeName, typeEnd := s.nameAfter(end)
		token, end = "... on "+typeName, typeEnd
	}

	s.fields = append(s.fields, Field{Name: token})
	s.open = len(s.fields) - 1
	s.wordStart = start
	s.inWord = false
	// A spread is never an alias.
	s.bare = false
	return end
}

// nameAfter skips blanks from offset i and returns the identifier found there, with the offset following it.
func (s *fieldScanner) nameAfter(i int) (string, int) {
	for i < len(s.body) && (s.body[i] == ' ' || s.body[i] == '\t' || s.body[i] == '\n' || s.body[i] == '\r') {
		i++
	}
	nameStart := i
	for i < len(s.body) && isNameByte(s.body[i]) {
		i++
	}
	return s.body[nameStart:i], i
}

// markAlias handles "alias: name" and "alias : name".
func (s *fieldScanner) markAlias() {
	switch {
	case s.inWord:
		s.aliasStart = s.wordStart
		s.inWord = false
	case s.open >= 0 && s.bare && s.open == len(s.fields)-1:
		s.aliasStart = s.wordStart
		s.fields = s.fields[:s.open]
		s.open = -1
	}
}

func (s *fieldScanner) closeField(end int) {
	start := s.wordStart
	if s.aliasStart >= 0 {
		start = s.aliasStart
	}

	f := &s.fields[s.open]
	f.Start = start
	f.End = end
	f.Definition = s.body[start:end]
	f.Variables = VariableUsages(f.Definition)

	s.open = -1
	s.aliasStart = -1
}
