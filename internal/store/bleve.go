package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search/query"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

const (
	// LineTokenizerName is the Bleve name of TokenizeLine.
	LineTokenizerName = "patclust_line"

	// LineAnalyzerName is the Bleve analyzer built on LineTokenizerName.
	LineAnalyzerName = "patclust_line_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(LineTokenizerName, lineTokenizerConstructor)
}

// lineDocument is the Bleve document of one assignment.
type lineDocument struct {
	Content string `json:"content"`
}

// BleveLineIndex is an in-memory Bleve index of assignment lines.
type BleveLineIndex struct {
	index bleve.Index
	lines map[string]LineHit
}

// NewBleveLineIndex creates an empty in-memory index.
func NewBleveLineIndex() (*BleveLineIndex, error) {
	m, err := newLineMapping()
	if err != nil {
		return nil, fmt.Errorf("create index mapping: %w", err)
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &BleveLineIndex{index: idx, lines: make(map[string]LineHit)}, nil
}

func newLineMapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(LineAnalyzerName, map[string]any{
		"type":      custom.Name,
		"tokenizer": LineTokenizerName,
	})
	if err != nil {
		return nil, err
	}
	m.DefaultAnalyzer = LineAnalyzerName
	return m, nil
}

func lineDocID(runID int64, row int) string {
	return strconv.FormatInt(runID, 10) + ":" + strconv.Itoa(row)
}

// Index adds the assignments of runs.
func (b *BleveLineIndex) Index(runs ...*Run) error {
	batch := b.index.NewBatch()
	for _, run := range runs {
		for _, a := range run.Assignments {
			id := lineDocID(run.ID, a.Row)
			if err := batch.Index(id, lineDocument{Content: a.Line}); err != nil {
				return fmt.Errorf("index line %s: %w", id, err)
			}
			b.lines[id] = LineHit{RunID: run.ID, Row: a.Row, Cluster: a.Cluster, Line: a.Line}
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}
	return nil
}

// Search returns the lines matching every token of q, best match first.
// Ties are broken by run and row.
func (b *BleveLineIndex) Search(ctx context.Context, q string, limit int) ([]LineHit, error) {
	if strings.TrimSpace(q) == "" || len(TokenizeLine(q)) == 0 {
		return []LineHit{}, nil
	}

	match := bleve.NewMatchQuery(q)
	match.SetField("content")
	match.SetOperator(query.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequest(match)
	req.Size = limit
	req.SortBy([]string{"-_score", "_id"})

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]LineHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		h, ok := b.lines[hit.ID]
		if !ok {
			continue
		}
		h.Score = hit.Score
		hits = append(hits, h)
	}
	return hits, nil
}

// Close releases the index.
func (b *BleveLineIndex) Close() error {
	return b.index.Close()
}

// bleveSearcher loads the searched runs into a fresh BleveLineIndex.
type bleveSearcher struct {
	store *Store
}

func (q *bleveSearcher) Search(ctx context.Context, text string, opts SearchOptions) ([]LineHit, error) {
	runs, err := q.runs(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}

	idx, err := NewBleveLineIndex()
	if err != nil {
		return nil, apperrors.InternalError("cannot create search index", err)
	}
	defer func() { _ = idx.Close() }()

	if err := idx.Index(runs...); err != nil {
		return nil, apperrors.InternalError("cannot index lines", err)
	}
	hits, err := idx.Search(ctx, text, opts.limit())
	if err != nil {
		return nil, wrapStoreError("cannot search lines", err)
	}
	slog.Debug("lines_searched",
		slog.String("backend", string(SearchBackendBleve)),
		slog.Int("runs", len(runs)),
		slog.Int("hits", len(hits)))
	return hits, nil
}

func (q *bleveSearcher) runs(ctx context.Context, id int64) ([]*Run, error) {
	if id != 0 {
		run, err := q.store.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*Run{run}, nil
	}

	list, err := q.store.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}
	runs := make([]*Run, 0, len(list))
	for _, r := range list {
		run, err := q.store.GetRun(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (q *bleveSearcher) Close() error { return nil }

func lineTokenizerConstructor(_ map[string]any, _ *registry.Cache) (analysis.Tokenizer, error) {
	return lineTokenizer{}, nil
}

// lineTokenizer exposes TokenizeLine to Bleve.
type lineTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (lineTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	lower := strings.ToLower(text)
	tokens := TokenizeLine(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	offset := 0
	for i, token := range tokens {
		start := strings.Index(lower[offset:], token)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := min(start+len(token), len(text))
		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
		offset = end
	}
	return result
}
