package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	logx "github.com/nia-core/server/pkg/logger"
)

// ===================================
// Web Search Tool
// ===================================

const ToolWebSearch = "web_search"

// maxQueryLen bounds what the model may send to the search backend.
const maxQueryLen = 200

// Searcher answers a web query with a short summary and its sources.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}

type SearchSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type SearchResult struct {
	Summary string         `json:"summary"`
	Sources []SearchSource `json:"sources,omitempty"`
}

type WebSearchInput struct {
	Query string `json:"query"`
}

type WebSearchOutput struct {
	Query   string         `json:"query"`
	Summary string         `json:"summary,omitempty"`
	Sources []SearchSource `json:"sources,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// NewWebSearchTool wraps a Searcher as an eino tool. Backend failures are
// reported to the model in the output instead of failing the turn.
func NewWebSearchTool(s Searcher) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Search the web for up-to-date, factual information to help answer a student's general knowledge question. Use short, specific queries. Never search for personal information or unsafe topics.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search keywords, for example: tallest mountain in the world",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *WebSearchInput) (*WebSearchOutput, error) {
			q := strings.TrimSpace(in.Query)
			if q == "" {
				return nil, fmt.Errorf("query is required")
			}
			if r := []rune(q); len(r) > maxQueryLen {
				q = string(r[:maxQueryLen])
			}

			res, err := s.Search(ctx, q)
			if err != nil {
				logx.Warn().Err(err).Str("tool", ToolWebSearch).Msg("web search failed")
				return &WebSearchOutput{Query: q, Error: "search unavailable, answer from what you know"}, nil
			}
			if res == nil {
				return &WebSearchOutput{Query: q}, nil
			}
			return &WebSearchOutput{Query: q, Summary: res.Summary, Sources: res.Sources}, nil
		},
	)
}

// GetTutorTools returns the tools the tutor model may call.
func GetTutorTools(s Searcher) []tool.BaseTool {
	if s == nil {
		return nil
	}
	return []tool.BaseTool{NewWebSearchTool(s)}
}

// GetToolInfos collects the declarations of tools for model binding.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
