package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/nia-core/server/internal/tutor/depth"
	"github.com/nia-core/server/internal/tutor/graph/conversations"
	"github.com/nia-core/server/internal/tutor/graph/nodes"
	"github.com/nia-core/server/internal/tutor/graph/tools"
	"github.com/nia-core/server/internal/tutor/model"
	"github.com/nia-core/server/internal/tutor/safety"
	logx "github.com/nia-core/server/pkg/logger"
)

// Config holds everything needed to compose the tutoring graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models, the web searcher and the MessagesManager.
type Config struct {
	Client           *genai.Client
	TutorModel       model.TutorModelConfig
	WebSearch        model.WebSearchConfig
	Conversation     model.ConversationConfig
	Retrieval        model.RetrievalConfig
	FollowUp         model.FollowUpConfig
	ConversationRepo model.ConversationRepository
	Retriever        model.Retriever
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels       *nodes.ChatModels
	MessagesManager  *conversations.MessagesManager
	Retriever        model.Retriever
	Searcher         tools.Searcher
	Filter           *safety.Filter
	Protocol         *depth.Protocol
	TutorModel       model.TutorModelConfig
	TopK             int
	ContextMaxTokens int
	ToolMaxCalls     int
}

// GraphBuilder handles the construction of the tutoring graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TutorInput, *model.Answer]
	tools  []tool.BaseTool
}

// BuildTutorRunner composes the chat models, searcher and MessagesManager,
// builds the graph, and returns a Runner.
func BuildTutorRunner(ctx context.Context, cfg Config) (*Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}

	var searcher tools.Searcher
	var toolInfos []*schema.ToolInfo
	if cfg.WebSearch.Enabled {
		searcher = tools.NewGeminiSearcher(cfg.Client, cfg.WebSearch.Model)
		infos, err := tools.GetToolInfos(ctx, tools.GetTutorTools(searcher))
		if err != nil {
			return nil, err
		}
		toolInfos = infos
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		Client:      cfg.Client,
		Tutor:       &cfg.TutorModel,
		SearchTools: toolInfos,
	})
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(ctx, &GraphConfig{
		ChatModels:       cms,
		MessagesManager:  conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation),
		Retriever:        cfg.Retriever,
		Searcher:         searcher,
		Filter:           safety.NewFilter(),
		Protocol:         depth.NewProtocol(cfg.FollowUp.Count),
		TutorModel:       cfg.TutorModel,
		TopK:             cfg.Retrieval.TopK,
		ContextMaxTokens: cfg.Retrieval.ContextMaxTokens,
		ToolMaxCalls:     cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Bool("web_search", searcher != nil).Msg("Tutor graph built successfully")
	return runner, nil
}

// BuildGraph constructs and returns the compiled tutoring graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TutorInput, *model.Answer], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Tutor == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.Filter == nil {
		config.Filter = safety.NewFilter()
	}
	if config.Protocol == nil {
		config.Protocol = depth.NewProtocol(depth.DefaultFollowUpCount)
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TutorInput, *model.Answer](
			compose.WithGenLocalState(func(ctx context.Context) *model.TutorState {
				return &model.TutorState{}
			}),
		),
	}

	if config.Searcher != nil && config.ChatModels.Search != nil {
		builder.tools = tools.GetTutorTools(config.Searcher)
		if err := builder.setupTools(ctx); err != nil {
			return nil, err
		}
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools adds the tools node serving the search-bound tutor model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               b.tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls (e.g., empty name)
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			// Best-effort sanitize; never fail hard here
			var m map[string]any
			if err := json.Unmarshal([]byte(arguments), &m); err != nil {
				return arguments, nil
			}
			if name == tools.ToolWebSearch {
				if v, ok := m["query"]; ok {
					switch vv := v.(type) {
					case string:
						m["query"] = strings.TrimSpace(vv)
					default:
						m["query"] = strings.TrimSpace(fmt.Sprint(v))
					}
				}
			}
			out, err := json.Marshal(m)
			if err != nil {
				return arguments, nil
			}
			return string(out), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)
	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	cfg := b.config

	b.graph.AddLambdaNode(nodes.NodeSafetyGate,
		nodes.NewSafetyGateNode(cfg.Filter, cfg.MessagesManager),
		compose.WithStatePreHandler(nodes.NewSafetyGatePreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeBlocked, nodes.NewBlockedNode())

	b.graph.AddLambdaNode(nodes.NodeRouter,
		nodes.NewRouterNode(cfg.MessagesManager, cfg.Retriever, nodes.RouterConfig{
			TopK:             cfg.TopK,
			ContextMaxTokens: cfg.ContextMaxTokens,
		}),
	)

	b.graph.AddLambdaNode(nodes.NodeTutorModel,
		nodes.NewTutorModelNode(cfg.ChatModels, cfg.TutorModel),
		compose.WithStatePreHandler(nodes.NewTutorModelPreHandler(cfg.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewTutorModelPostHandler(cfg.ChatModels.TutorModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeFinalizer, nodes.NewFinalizerNode(cfg.Filter, cfg.Protocol))
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeSafetyGate},
		{nodes.NodeBlocked, compose.END},
		{nodes.NodeRouter, nodes.NodeTutorModel},
		{nodes.NodeFinalizer, compose.END},
	}
	if b.tools != nil {
		edges = append(edges, [2]string{nodes.NodeToolExecutor, nodes.NodeTutorModel})
	} else {
		edges = append(edges, [2]string{nodes.NodeTutorModel, nodes.NodeFinalizer})
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	safetyBranch := compose.NewGraphBranch(
		nodes.NewSafetyCondition(),
		map[string]bool{
			nodes.NodeBlocked: true,
			nodes.NodeRouter:  true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSafetyGate, safetyBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding safety branch")
		return fmt.Errorf("error adding safety branch: %w", err)
	}

	if b.tools == nil {
		return nil
	}

	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeFinalizer:    true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeTutorModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TutorInput, *model.Answer], error) {
	// Limit total run steps to avoid infinite loops in tool retries
	maxSteps := max(20, 10+nodes.DefaultMaxToolCalls*2, 10+b.config.ToolMaxCalls*2)

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
