package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "github.com/nia-core/server/pkg/logger"
)

func init() {
	logx.Silence()
}

type stubSearcher struct {
	got string
	res *SearchResult
	err error
}

func (s *stubSearcher) Search(_ context.Context, q string) (*SearchResult, error) {
	s.got = q
	return s.res, s.err
}

func TestWebSearchTool(t *testing.T) {
	ctx := context.Background()
	s := &stubSearcher{res: &SearchResult{Summary: "Mount Everest", Sources: []SearchSource{{Title: "Everest", URL: "https://example.org"}}}}
	wt := NewWebSearchTool(s)

	info, err := wt.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, ToolWebSearch, info.Name)

	out, err := wt.InvokableRun(ctx, `{"query":"  tallest mountain  "}`)
	require.NoError(t, err)
	assert.Equal(t, "tallest mountain", s.got)
	assert.Contains(t, out, "Mount Everest")
	assert.Contains(t, out, "https://example.org")
}

func TestWebSearchToolDegrades(t *testing.T) {
	ctx := context.Background()
	wt := NewWebSearchTool(&stubSearcher{err: errors.New("quota")})

	out, err := wt.InvokableRun(ctx, `{"query":"volcanoes"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "search unavailable")

	_, err = wt.InvokableRun(ctx, `{"query":""}`)
	assert.Error(t, err)

	s := &stubSearcher{}
	_, err = NewWebSearchTool(s).InvokableRun(ctx, `{"query":"`+strings.Repeat("a", 500)+`"}`)
	require.NoError(t, err)
	assert.Len(t, s.got, maxQueryLen)
}

func TestGetToolInfos(t *testing.T) {
	assert.Nil(t, GetTutorTools(nil))

	ts := GetTutorTools(&stubSearcher{})
	infos, err := GetToolInfos(context.Background(), ts)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, ToolWebSearch, infos[0].Name)

	var _ tool.BaseTool = ts[0]
}

func TestGeminiSearcherRequiresClient(t *testing.T) {
	_, err := NewGeminiSearcher(nil, "gemini-2.5-flash-lite").Search(context.Background(), "x")
	assert.Error(t, err)
}
