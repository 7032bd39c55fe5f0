package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Preamble string     // Text that appears before the first heading
	Locator  string     // Unit of DocNode.Page ("line", "row"); empty when pages are unset
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source position in Locator units (0 if N/A)
	Children []*DocNode // Subsections
}

// Section is one contiguous span of a normalized document.
type Section struct {
	Index      int    // Position in segmenter output, stable for the request
	Raw        string // Span as it appears in the document, including its marker
	Normalized string // Marker-free, single-line text used for scoring
}

// ScoredSection pairs a section with its relevance for a query set.
type ScoredSection struct {
	Section      Section
	Score        float64
	MatchedTerms []string // Sorted, no duplicates
}

// ContextBundle is the size-bounded context handed to the prompt builder.
type ContextBundle struct {
	Text           string
	SizeBytes      int
	SectionIndexes []int // Selection order, no duplicates
	Fallback       bool  // Built from a document prefix because nothing scored
	Bypassed       bool  // Small document, selection skipped
}

// Contains reports whether section idx contributed to the bundle.
func (b ContextBundle) Contains(idx int) bool {
	for _, i := range b.SectionIndexes {
		if i == idx {
			return true
		}
	}
	return false
}
