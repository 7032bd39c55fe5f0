package prompt

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docqa/internal/answer"
	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/query"
)

// NotFoundPhrase is the wording the generator is told to use when the
// context does not hold an answer.
const NotFoundPhrase = answer.Sentinel

const Instructions = `You are an expert insurance and policy document analyst. Answer each question using ONLY the document context below.

Rules:
- Answer every question, in order, as a numbered list: "1. <answer>", "2. <answer>", one number per question
- Start each answer on its own line with its number; do not repeat the question
- Keep each answer to 1-3 sentences
- Include exact figures, waiting periods, limits, percentages and conditions when the context states them
- For yes/no questions, begin the answer with "Yes" or "No", then give the supporting condition
- Do not add citations, page references or source notes
- If the context does not contain the answer, reply exactly "` + NotFoundPhrase + `"`

// Build formats the selected context and the preprocessed questions into
// the instruction text sent to the generator.
func Build(bundle doctree.ContextBundle, queries []query.Query) string {
	var sb strings.Builder
	sb.WriteString(Instructions)
	sb.WriteString("\n\n---\nDOCUMENT CONTEXT:\n")
	sb.WriteString(bundle.Text)
	sb.WriteString("\n---\nQUESTIONS:\n")
	for i, q := range queries {
		text := q.Expanded
		if text == "" {
			text = q.Original
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, text))
	}
	sb.WriteString("\nANSWERS:\n")
	return sb.String()
}
