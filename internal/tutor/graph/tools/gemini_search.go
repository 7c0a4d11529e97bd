package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const searchInstruction = "Search the web and summarise, in a few plain sentences suitable for a school student, the facts that answer: "

// GeminiSearcher runs queries through Gemini with Google Search grounding.
type GeminiSearcher struct {
	client *genai.Client
	model  string
}

func NewGeminiSearcher(client *genai.Client, model string) *GeminiSearcher {
	return &GeminiSearcher{client: client, model: model}
}

func (g *GeminiSearcher) Search(ctx context.Context, query string) (*SearchResult, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gemini searcher is not configured")
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(searchInstruction+query),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("grounded search: %w", err)
	}

	res := &SearchResult{Summary: strings.TrimSpace(resp.Text())}
	for _, c := range resp.Candidates {
		if c == nil || c.GroundingMetadata == nil {
			continue
		}
		for _, ch := range c.GroundingMetadata.GroundingChunks {
			if ch == nil || ch.Web == nil {
				continue
			}
			res.Sources = append(res.Sources, SearchSource{Title: ch.Web.Title, URL: ch.Web.URI})
		}
	}
	return res, nil
}

var _ Searcher = (*GeminiSearcher)(nil)
