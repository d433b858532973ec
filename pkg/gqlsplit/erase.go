package gqlsplit

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/stellar/graphql-stitcher/pkg/gqlquery"
)

var ErrOverlappingSpans = errors.New("overlapping spans")

var (
	trailingCommaPattern = regexp.MustCompile(`,\s*\)`)
	emptyParensPattern   = regexp.MustCompile(`\(\s*\)`)
)

// span is an absolute [start, end) range of the text being rewritten.
type span struct {
	start int
	end   int
}

// removedSpans collects the ranges to cut. An operation with nothing left to select is cut as a whole,
// header included.
func removedSpans(segments []gqlquery.Segment) []span {
	var spans []span
	for i := range segments {
		segment := &segments[i]

		if segment.Removed {
			spans = append(spans, span{segment.Start, segment.End()})
			continue
		}
		if segment.IsFragment() {
			continue
		}

		for _, f := range segment.Fields {
			if f.Removed {
				start, end := segment.FieldSpan(f)
				spans = append(spans, span{start, end})
			}
		}
		for _, p := range segment.Parameters {
			if p.Removed {
				start, end := segment.ParameterSpan(p)
				spans = append(spans, span{start, end})
			}
		}
	}
	return spans
}

func eraseRemoved(text string, segments []gqlquery.Segment) (string, error) {
	erased, err := erase(text, removedSpans(segments))
	if err != nil {
		return "", err
	}
	return cleanup(erased), nil
}

// erase copies text without the given spans in a single pass.
func erase(text string, spans []span) (string, error) {
	if len(spans) == 0 {
		return text, nil
	}

	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Compare(a.start, b.start)
	})

	var sb strings.Builder
	sb.Grow(len(text))

	cursor := 0
	for _, s := range spans {
		if s.start < cursor || s.end < s.start || s.end > len(text) {
			return "", fmt.Errorf("%w: [%d, %d) after %d", ErrOverlappingSpans, s.start, s.end, cursor)
		}
		sb.WriteString(text[cursor:s.start])
		cursor = s.end
	}
	sb.WriteString(text[cursor:])

	return sb.String(), nil
}

// cleanup removes the punctuation a cut can leave behind: a comma right before `)` and an empty `()`.
func cleanup(text string) string {
	text = trailingCommaPattern.ReplaceAllString(text, ")")
	return emptyParensPattern.ReplaceAllString(text, "")
}
