// Package response recovers one answer fragment per question from a
// generator's free-text reply.
//
// Recovery runs an ordered list of strategies. Each returns a partial map
// from 1-based position to fragment; Merge keeps the first strategy's
// fragment for each position and lets later strategies fill only the gaps.
package response

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docqa/internal/answer"
)

// Slot is one answer position.
type Slot struct {
	Position int    // 1-based
	Fragment string // Raw recovered text, empty when not found
	Found    bool
	Final    string // Fragment, or the sentinel when not found; validated later
}

// Strategy extracts what it can from reply for n questions. Positions
// outside 1..n must be left out.
type Strategy interface {
	Name() string
	Extract(reply string, n int) map[int]string
}

// DefaultStrategies is the primary numbered scan followed by the
// line-oriented fallback.
var DefaultStrategies = []Strategy{Numbered{}, Lines{}}

// Parse recovers exactly n slots from reply using DefaultStrategies.
func Parse(reply string, n int) []Slot {
	return ParseWith(reply, n, DefaultStrategies...)
}

// ParseWith recovers exactly n slots using the given strategies in order.
func ParseWith(reply string, n int, strategies ...Strategy) []Slot {
	if n <= 0 {
		return nil
	}
	filled := Merge(reply, n, strategies...)
	slots := make([]Slot, n)
	for i := range slots {
		pos := i + 1
		frag, ok := filled[pos]
		slots[i] = Slot{Position: pos, Fragment: frag, Found: ok, Final: frag}
		if !ok {
			slots[i].Final = answer.Sentinel
		}
	}
	return slots
}

// Fragments returns the Final text of Parse, in question order.
func Fragments(reply string, n int) []string {
	slots := Parse(reply, n)
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Final
	}
	return out
}

// Merge fills positions 1..n from the strategies in order. A position set
// by an earlier strategy is never overwritten; later strategies run only
// while gaps remain.
func Merge(reply string, n int, strategies ...Strategy) map[int]string {
	filled := make(map[int]string, n)
	for _, s := range strategies {
		if len(filled) >= n {
			break
		}
		for pos, frag := range s.Extract(reply, n) {
			if pos < 1 || pos > n || strings.TrimSpace(frag) == "" {
				continue
			}
			if _, ok := filled[pos]; !ok {
				filled[pos] = frag
			}
		}
	}
	return filled
}

// Filled counts the slots that hold recovered text.
func Filled(slots []Slot) int {
	c := 0
	for _, s := range slots {
		if s.Found {
			c++
		}
	}
	return c
}

// numberedMarkerRe also matches "1.Yes"; a digit right after the dot
// ("2.5 lakh") is rejected by isMarker.
var numberedMarkerRe = regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]*`)

// isMarker reports whether a marker match ending at end is a real answer
// marker rather than the start of a decimal or a time.
func isMarker(s string, end int) bool {
	return end >= len(s) || s[end] < '0' || s[end] > '9'
}

// Numbered binds the text after each line-start "N." marker, up to the next
// marker, to position N. The first occurrence of a number wins.
type Numbered struct{}

func (Numbered) Name() string { return "numbered" }

func (Numbered) Extract(reply string, n int) map[int]string {
	out := make(map[int]string)
	var locs [][]int
	for _, loc := range numberedMarkerRe.FindAllStringSubmatchIndex(reply, -1) {
		if isMarker(reply, loc[1]) {
			locs = append(locs, loc)
		}
	}
	for i, loc := range locs {
		pos, err := strconv.Atoi(reply[loc[2]:loc[3]])
		if err != nil || pos < 1 || pos > n {
			continue
		}
		if _, seen := out[pos]; seen {
			continue
		}
		end := len(reply)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if frag := strings.TrimSpace(reply[loc[1]:end]); frag != "" {
			out[pos] = frag
		}
	}
	return out
}

// lineMarkerRe accepts the looser numbering generators drift into:
// "2)", "2:", "**2.**", "Q2:", "Answer 2:", and no space before the
// answer text as in "2.Yes".
var lineMarkerRe = regexp.MustCompile(`^(?:\*\*)?(?:(?:Q|Question|A|Answer)\s*)?(\d+)(?:\*\*)?[.):](?:\*\*)?\s*`)

var ruleLineRe = regexp.MustCompile(`^[-=*_]{3,}$`)

// Lines walks the reply line by line. A marker line opens answer N and
// closes the previous one; other non-empty lines continue the open answer.
// Citation and separator lines are skipped in every state. Text before the
// first marker is dropped, unless the reply has no markers at all, in which
// case it becomes answer 1.
type Lines struct{}

func (Lines) Name() string { return "lines" }

func (Lines) Extract(reply string, n int) map[int]string {
	out := make(map[int]string)
	var preamble, buf []string
	current := 0 // 0 while idle
	sawMarker := false

	flush := func() {
		if current >= 1 && current <= n && len(buf) > 0 {
			if _, seen := out[current]; !seen {
				out[current] = strings.Join(buf, " ")
			}
		}
		buf = nil
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isCitation(line) {
			continue
		}
		if m := lineMarkerRe.FindStringSubmatchIndex(line); m != nil && isMarker(line, m[1]) {
			flush()
			sawMarker = true
			current, _ = strconv.Atoi(line[m[2]:m[3]])
			if rest := strings.TrimSpace(line[m[1]:]); rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if current == 0 {
			preamble = append(preamble, line)
			continue
		}
		buf = append(buf, line)
	}
	flush()

	if !sawMarker && len(preamble) > 0 && n >= 1 {
		out[1] = strings.Join(preamble, " ")
	}
	return out
}

func isCitation(line string) bool {
	if strings.Contains(line, "📋") || ruleLineRe.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, p := range []string{"source:", "sources:", "reference:", "references:"} {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
