package depth

import (
	"testing"

	"github.com/nia-core/server/internal/tutor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceScenarioD(t *testing.T) {
	p := NewProtocol(1)
	prev := model.ConversationState{MaxDepth: 1, MessageCount: 2}

	out := p.Advance(prev, 2, model.English)
	assert.Equal(t, 2, out.Depth)
	assert.False(t, out.MaxDepthReached)
	assert.True(t, out.FollowUpOffered)
	require.Len(t, out.FollowUps, 1)
	assert.Contains(t, followUps[model.English][2], out.FollowUps[0])
	assert.Equal(t, model.ConversationState{MaxDepth: 2, MessageCount: 4}, out.State)
}

func TestAdvanceTerminalDepth(t *testing.T) {
	p := NewProtocol(3)
	for _, prev := range []model.ConversationState{{}, {MaxDepth: 1}, {MaxDepth: 3, MessageCount: 40}} {
		out := p.Advance(prev, 3, model.Spanish)
		assert.True(t, out.MaxDepthReached)
		assert.False(t, out.FollowUpOffered)
		assert.Empty(t, out.FollowUps)
		assert.NotNil(t, out.FollowUps)
		assert.Equal(t, 3, out.State.MaxDepth)
	}
}

func TestAdvanceMaxDepthIsMonotonic(t *testing.T) {
	p := NewProtocol(1)
	out := p.Advance(model.ConversationState{MaxDepth: 3}, 1, model.English)
	assert.Equal(t, 1, out.Depth)
	assert.Equal(t, 3, out.State.MaxDepth)
	assert.False(t, out.MaxDepthReached)
}

func TestAdvanceClampsDepth(t *testing.T) {
	p := NewProtocol(1)
	assert.Equal(t, 1, p.Advance(model.ConversationState{}, -4, model.English).Depth)
	assert.Equal(t, 3, p.Advance(model.ConversationState{}, 99, model.English).Depth)
}

func TestFollowUpsRotateAndLocalize(t *testing.T) {
	p := NewProtocol(1)
	seen := map[string]bool{}
	for seed := 0; seed < 3; seed++ {
		seen[p.FollowUps(1, model.English, seed)[0]] = true
	}
	assert.Len(t, seen, 3)

	all := NewProtocol(5).FollowUps(2, model.Spanish, 1)
	assert.Len(t, all, 3)
	for _, q := range all {
		assert.Contains(t, followUps[model.Spanish][2], q)
		assert.NotContains(t, followUps[model.English][2], q)
	}

	assert.Equal(t, followUps[model.English][1][:1], p.FollowUps(1, model.Language("fr"), 0))
}
