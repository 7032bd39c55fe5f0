package pipeline

import "github.com/rotisserie/eris"

// Request-level failure states. None of them escapes Answer: each is
// converted into a fixed answer text so the caller always gets one answer
// per question. Run reports them in Result.Problems.
var (
	ErrEmptyDocument     = eris.New("pipeline: document has no text")
	ErrNoRelevantContent = eris.New("pipeline: no relevant content selected")
	ErrGenerationFailure = eris.New("pipeline: generation failed")
	ErrParseShortfall    = eris.New("pipeline: reply did not answer every question")
)

// Answer texts used to fill every slot when the request cannot proceed.
const (
	MsgEmptyDocument     = "No text found in document."
	MsgNoRelevantContent = "No relevant content found in document."
	MsgGenerationFailure = "Unable to generate an answer at this time."
)
