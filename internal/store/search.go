package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

// SearchBackend ranks the lines of stored runs.
type SearchBackend string

const (
	// SearchBackendSQLite queries the FTS5 index kept in the run database.
	SearchBackendSQLite SearchBackend = "sqlite"

	// SearchBackendBleve loads the lines in an in-memory Bleve index for each
	// search.
	SearchBackendBleve SearchBackend = "bleve"
)

// SearchBackends lists the valid backends.
var SearchBackends = []SearchBackend{SearchBackendSQLite, SearchBackendBleve}

// DefaultSearchLimit bounds the number of hits when no limit is given.
const DefaultSearchLimit = 20

// LineHit is a stored line matching a search, scored by BM25. Higher scores
// are better matches.
type LineHit struct {
	RunID   int64   `json:"run_id"`
	Row     int     `json:"row"`
	Cluster int     `json:"cluster"`
	Line    string  `json:"line"`
	Score   float64 `json:"score"`
}

// SearchOptions restricts a search.
type SearchOptions struct {
	// RunID restricts the search to one run. Zero searches every run.
	RunID int64
	// Limit bounds the number of hits. Defaults to DefaultSearchLimit.
	Limit int
}

func (o SearchOptions) limit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return DefaultSearchLimit
}

// LineSearcher finds the stored lines matching every token of a query.
type LineSearcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]LineHit, error)
	Close() error
}

// NewLineSearcher returns the searcher of backend over s. An empty backend
// selects SQLite.
func NewLineSearcher(s *Store, backend string) (LineSearcher, error) {
	switch SearchBackend(backend) {
	case SearchBackendSQLite, "":
		return sqliteSearcher{s}, nil
	case SearchBackendBleve:
		return &bleveSearcher{store: s}, nil
	default:
		return nil, apperrors.ValidationError(fmt.Sprintf("unknown search backend %q", backend), nil).
			WithSuggestion("use sqlite or bleve")
	}
}

// sqliteSearcher searches the FTS5 index of the run database.
type sqliteSearcher struct{ s *Store }

func (q sqliteSearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]LineHit, error) {
	return q.s.SearchLines(ctx, query, opts)
}

// Close is a no-op: the store outlives the searcher.
func (q sqliteSearcher) Close() error { return nil }

// SearchLines returns the stored lines matching every token of query, best
// match first. A query without tokens matches nothing.
func (s *Store) SearchLines(ctx context.Context, query string, opts SearchOptions) ([]LineHit, error) {
	tokens := TokenizeLine(query)
	if len(tokens) == 0 {
		return []LineHit{}, nil
	}

	// Quoted tokens are FTS5 strings, never operators. Space-separated
	// terms must all match.
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}

	// bm25() is lower for better matches.
	rows, err := s.db.QueryContext(ctx, `
		SELECT lines_fts.run_id, lines_fts.line_no, a.cluster, a.line, bm25(lines_fts) AS score
		FROM lines_fts
		JOIN assignments a ON a.run_id = lines_fts.run_id AND a.line_no = lines_fts.line_no
		WHERE lines_fts MATCH ? AND (? = 0 OR lines_fts.run_id = ?)
		ORDER BY score, lines_fts.run_id, lines_fts.line_no
		LIMIT ?
	`, strings.Join(quoted, " "), opts.RunID, opts.RunID, opts.limit())
	if err != nil {
		return nil, wrapStoreError("cannot search lines", err)
	}
	defer rows.Close()

	hits := []LineHit{}
	for rows.Next() {
		var h LineHit
		if err := rows.Scan(&h.RunID, &h.Row, &h.Cluster, &h.Line, &h.Score); err != nil {
			return nil, wrapStoreError("cannot search lines", err)
		}
		h.Score = -h.Score
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("cannot search lines", err)
	}
	slog.Debug("lines_searched",
		slog.String("backend", string(SearchBackendSQLite)),
		slog.Int("tokens", len(tokens)),
		slog.Int("hits", len(hits)))
	return hits, nil
}
