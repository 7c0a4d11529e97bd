// Package depth implements the three-level tutoring depth protocol.
//
// Depth is caller driven: any requested level in [1,3] is accepted and the
// conversation remembers the deepest level reached so far. Level 3 is
// terminal for a topic, so no follow-up is offered there.
package depth

import "github.com/nia-core/server/internal/tutor/model"

const (
	// DefaultFollowUpCount is how many follow-up prompts an answer carries.
	DefaultFollowUpCount = 1
	followUpsPerTier     = 3
	// messagesPerTurn counts the question and its answer.
	messagesPerTurn = 2
)

var followUps = map[model.Language]map[int][]string{
	model.English: {
		1: {
			"Would you like to learn more about this?",
			"Do you want me to explain it with another example?",
			"Should we dig a little deeper into this topic?",
		},
		2: {
			"Want to go even deeper and see how this connects to other ideas?",
			"Would you like a challenge question about this?",
			"Are you ready for the advanced version of this topic?",
		},
	},
	model.Spanish: {
		1: {
			"¿Te gustaría aprender más sobre esto?",
			"¿Quieres que te lo explique con otro ejemplo?",
			"¿Profundizamos un poco más en este tema?",
		},
		2: {
			"¿Quieres ir aún más profundo y ver cómo se conecta con otras ideas?",
			"¿Te gustaría una pregunta de desafío sobre esto?",
			"¿Estás listo para la versión avanzada de este tema?",
		},
	},
}

// Outcome is the protocol decision for one turn.
type Outcome struct {
	Depth           int
	State           model.ConversationState
	MaxDepthReached bool
	FollowUpOffered bool
	FollowUps       []string
}

// Protocol holds the follow-up policy. It keeps no per-conversation state.
type Protocol struct {
	count int
}

// NewProtocol returns a protocol offering count follow-ups per answer,
// clamped to [1,3].
func NewProtocol(count int) *Protocol {
	if count <= 0 {
		count = DefaultFollowUpCount
	}
	return &Protocol{count: min(count, followUpsPerTier)}
}

// Advance applies the requested depth to the prior conversation state.
func (p *Protocol) Advance(prev model.ConversationState, requested int, lang model.Language) Outcome {
	d := model.ClampDepth(requested)
	state := model.ConversationState{
		MaxDepth:     max(model.ClampDepth(prev.MaxDepth), d),
		MessageCount: prev.MessageCount + messagesPerTurn,
	}
	out := Outcome{Depth: d, State: state}
	if d == model.MaxDepth {
		out.MaxDepthReached = true
		out.FollowUps = []string{}
		return out
	}
	out.FollowUps = p.FollowUps(d, lang, prev.MessageCount)
	out.FollowUpOffered = len(out.FollowUps) > 0
	return out
}

// FollowUps picks prompts from the tier table for depth, rotating the start
// by seed so consecutive turns vary. Depth 3 has no follow-ups.
func (p *Protocol) FollowUps(depth int, lang model.Language, seed int) []string {
	table, ok := followUps[lang]
	if !ok {
		table = followUps[model.English]
	}
	tier := table[model.ClampDepth(depth)]
	if len(tier) == 0 {
		return []string{}
	}
	if seed < 0 {
		seed = -seed
	}
	out := make([]string, 0, p.count)
	for i := 0; i < p.count; i++ {
		out = append(out, tier[(seed+i)%len(tier)])
	}
	return out
}
