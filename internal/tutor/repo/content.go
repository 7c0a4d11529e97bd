package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	errx "github.com/nia-core/server/internal/core/error"
	"github.com/nia-core/server/internal/tutor/model"
	logx "github.com/nia-core/server/pkg/logger"
)

// DefaultSearchLimit is used when a content query carries no limit.
const DefaultSearchLimit = 10

// Corpus is the on-disk curated content format.
type Corpus struct {
	Documents []model.ContentDocument `json:"documents"`
}

// LoadCorpus reads a corpus file. A missing file is an empty corpus.
func LoadCorpus(path string) ([]model.ContentDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logx.Warn().Str("path", path).Msg("corpus not found, using empty corpus")
			return nil, nil
		}
		return nil, errx.WrapContent(fmt.Errorf("read corpus: %w", err))
	}
	var c Corpus
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, errx.WrapContent(fmt.Errorf("decode corpus %s: %w", path, err))
	}
	return c.Documents, nil
}

// matches applies store filter semantics: subject and band filter exactly;
// the text filter applies only when neither is set.
func matches(d model.ContentDocument, q model.ContentQuery) bool {
	if q.Subject != "" && d.Subject != q.Subject {
		return false
	}
	if q.GradeBand != "" && d.GradeBand != q.GradeBand {
		return false
	}
	if q.Subject == "" && q.GradeBand == "" && strings.TrimSpace(q.Text) != "" {
		return strings.Contains(strings.ToLower(d.Content), strings.ToLower(strings.TrimSpace(q.Text)))
	}
	return true
}

func limitOf(q model.ContentQuery) int {
	if q.Limit <= 0 {
		return DefaultSearchLimit
	}
	return q.Limit
}

// MemoryContentStore serves a corpus held in memory, in corpus order.
type MemoryContentStore struct {
	mu   sync.RWMutex
	docs []model.ContentDocument
}

func NewMemoryContentStore(docs []model.ContentDocument) *MemoryContentStore {
	return &MemoryContentStore{docs: append([]model.ContentDocument(nil), docs...)}
}

// Put appends a document, replacing one with the same ID in place.
func (s *MemoryContentStore) Put(_ context.Context, doc model.ContentDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, i, ok := lo.FindIndexOf(s.docs, func(d model.ContentDocument) bool { return d.ID == doc.ID }); ok {
		s.docs[i] = doc
		return nil
	}
	s.docs = append(s.docs, doc)
	return nil
}

func (s *MemoryContentStore) Search(_ context.Context, q model.ContentQuery) ([]model.ContentDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Filter(s.docs, func(d model.ContentDocument, _ int) bool { return matches(d, q) })
	if n := limitOf(q); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// RedisContentStore keeps documents as JSON with insertion-ordered index
// lists per subject, band and subject+band.
type RedisContentStore struct {
	rdb redis.Cmdable
}

func NewRedisContentStore(rdb redis.Cmdable) *RedisContentStore {
	return &RedisContentStore{rdb: rdb}
}

func docKey(id string) string { return "content:doc:" + id }

const allDocsKey = "content:ids"

func indexKey(q model.ContentQuery) string {
	switch {
	case q.Subject != "" && q.GradeBand != "":
		return fmt.Sprintf("content:idx:%s:%s", q.Subject, q.GradeBand)
	case q.Subject != "":
		return fmt.Sprintf("content:idx:subject:%s", q.Subject)
	case q.GradeBand != "":
		return fmt.Sprintf("content:idx:band:%s", q.GradeBand)
	default:
		return allDocsKey
	}
}

// Put stores doc and indexes it on first insert.
func (s *RedisContentStore) Put(ctx context.Context, doc model.ContentDocument) error {
	if doc.ID == "" {
		return errx.WrapContent(fmt.Errorf("document without id: %q", doc.Title))
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	created, err := s.rdb.SetNX(ctx, docKey(doc.ID), b, 0).Result()
	if err != nil {
		return errx.WrapRedis(err)
	}
	if !created {
		return errx.WrapRedis(s.rdb.Set(ctx, docKey(doc.ID), b, 0).Err())
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, allDocsKey, doc.ID)
		p.RPush(ctx, indexKey(model.ContentQuery{Subject: doc.Subject}), doc.ID)
		p.RPush(ctx, indexKey(model.ContentQuery{GradeBand: doc.GradeBand}), doc.ID)
		p.RPush(ctx, indexKey(model.ContentQuery{Subject: doc.Subject, GradeBand: doc.GradeBand}), doc.ID)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("id", doc.ID).Msg("failed to index content document")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisContentStore) Search(ctx context.Context, q model.ContentQuery) ([]model.ContentDocument, error) {
	key := indexKey(q)
	ids, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to read content index")
		return nil, errx.WrapContent(err)
	}
	if len(ids) == 0 {
		return []model.ContentDocument{}, nil
	}

	keys := lo.Map(ids, func(id string, _ int) string { return docKey(id) })
	rows, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load content documents")
		return nil, errx.WrapContent(err)
	}

	limit := limitOf(q)
	out := make([]model.ContentDocument, 0, min(limit, len(rows)))
	for i, row := range rows {
		raw, ok := row.(string)
		if !ok {
			continue
		}
		var d model.ContentDocument
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			logx.Warn().Err(err).Str("id", ids[i]).Msg("skipping undecodable content document")
			continue
		}
		if !matches(d, q) {
			continue
		}
		out = append(out, d)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

var (
	_ model.ContentStore = (*MemoryContentStore)(nil)
	_ model.ContentStore = (*RedisContentStore)(nil)
)
