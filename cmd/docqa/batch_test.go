package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBatch(t *testing.T) {
	input := `{"id":"a","text":"Grace period is 30 days.","questions":["What is the grace period?"]}

{"id":"b","document":"policy.md","questions":["Q1?","Q2?"]}
`
	items, err := readBatch(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "Grace period is 30 days.", items[0].Text)
	assert.Equal(t, "policy.md", items[1].Document)
	assert.Equal(t, []string{"Q1?", "Q2?"}, items[1].Questions)
}

func TestReadBatch_Errors(t *testing.T) {
	_, err := readBatch(strings.NewReader(`{"id":"a","text":"x"}` + "\n{broken\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = readBatch(strings.NewReader(`{"id":"a","questions":["Q?"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither document nor text")
}

func TestProcessBatch_KeepsOrderAndRecordsFailures(t *testing.T) {
	items := []batchItem{
		{ID: "slow", Text: "x", Questions: []string{"A?"}},
		{ID: "bad", Document: "missing.md", Questions: []string{"B?"}},
		{ID: "fast", Text: "y", Questions: []string{"C?", "D?"}},
	}
	answer := func(_ context.Context, item batchItem) ([]string, error) {
		switch item.ID {
		case "slow":
			time.Sleep(20 * time.Millisecond)
		case "bad":
			return nil, errors.New("no such file")
		}
		out := make([]string, len(item.Questions))
		for i := range out {
			out[i] = item.ID
		}
		return out, nil
	}

	results := processBatch(context.Background(), items, 3, answer)

	require.Len(t, results, 3)
	assert.Equal(t, batchResult{ID: "slow", Answers: []string{"slow"}}, results[0])
	assert.Equal(t, "bad", results[1].ID)
	assert.Equal(t, "no such file", results[1].Error)
	assert.Empty(t, results[1].Answers)
	assert.Equal(t, batchResult{ID: "fast", Answers: []string{"fast", "fast"}}, results[2])
}

func TestProcessBatch_BoundsConcurrency(t *testing.T) {
	items := make([]batchItem, 12)
	for i := range items {
		items[i] = batchItem{ID: "x", Text: "t", Questions: []string{"Q?"}}
	}
	var inFlight, peak atomic.Int32
	answer := func(context.Context, batchItem) ([]string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return []string{"ok"}, nil
	}

	processBatch(context.Background(), items, 2, answer)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestProcessBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	results := processBatch(ctx, []batchItem{{ID: "a", Text: "t"}}, 1, func(context.Context, batchItem) ([]string, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
	assert.Equal(t, context.Canceled.Error(), results[0].Error)
}

func TestWriteBatch(t *testing.T) {
	var buf bytes.Buffer
	err := writeBatch(&buf, []batchResult{
		{ID: "a", Answers: []string{"30 days."}},
		{ID: "b", Answers: []string{}, Error: "boom"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a","answers":["30 days."]}`+"\n"+`{"id":"b","answers":[],"error":"boom"}`+"\n", buf.String())
}
