package usage_test

import (
	"sync"
	"testing"

	"github.com/germanamz/statai/pkg/modeladapter/usage"
	"github.com/stretchr/testify/assert"
)

func TestTokenCount_Total(t *testing.T) {
	assert.Equal(t, 150, usage.TokenCount{PromptTokens: 100, CompletionTokens: 50}.Total())
}

func TestTracker_Empty(t *testing.T) {
	var tr usage.Tracker

	assert.Zero(t, tr.Requests())
	assert.Equal(t, usage.TokenCount{}, tr.Total())
}

func TestTracker_Accumulates(t *testing.T) {
	var tr usage.Tracker
	tr.Add(usage.TokenCount{PromptTokens: 120, CompletionTokens: 30})
	tr.Add(usage.TokenCount{PromptTokens: 80, CompletionTokens: 20})

	assert.Equal(t, 2, tr.Requests())
	assert.Equal(t, usage.TokenCount{PromptTokens: 200, CompletionTokens: 50}, tr.Total())
}

func TestTracker_Concurrent(t *testing.T) {
	var tr usage.Tracker
	var wg sync.WaitGroup

	for range 50 {
		wg.Go(func() {
			tr.Add(usage.TokenCount{PromptTokens: 2, CompletionTokens: 1})
		})
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Requests())
	assert.Equal(t, 150, tr.Total().Total())
}
