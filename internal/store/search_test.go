package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patclust/internal/clustering"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

func searchRun() *Run {
	return NewRun("net.log", 0.6, &clustering.Result{
		Lines: []string{
			"connection reset by peer 10.0.0.1",
			"connectionTimeout after 30s",
			"user_login ok",
			"connection reset by peer 10.0.0.2",
		},
		Clusters: []int{0, 1, 2, 0},
	})
}

func rowsOf(hits []LineHit) []int {
	rows := make([]int, len(hits))
	for i, h := range hits {
		rows[i] = h.Row
	}
	return rows
}

func TestLineSearcher_Backends(t *testing.T) {
	for _, backend := range SearchBackends {
		t.Run(string(backend), func(t *testing.T) {
			// Given: a stored run
			s, _ := newTestStore(t)
			ctx := context.Background()
			id, err := s.SaveRun(ctx, searchRun())
			require.NoError(t, err)
			searcher, err := NewLineSearcher(s, string(backend))
			require.NoError(t, err)
			defer searcher.Close()

			tests := []struct {
				query string
				rows  []int
			}{
				{"connection reset", []int{0, 3}},
				{"RESET 10.0.0.2", []int{3}},
				{"timeout", []int{1}},
				{"login", []int{2}},
				{"missing", []int{}},
				{"the", []int{}},
				{"", []int{}},
			}
			for _, tt := range tests {
				// When
				hits, err := searcher.Search(ctx, tt.query, SearchOptions{})

				// Then
				require.NoError(t, err, tt.query)
				assert.Equal(t, tt.rows, rowsOf(hits), tt.query)
				for _, h := range hits {
					assert.Equal(t, id, h.RunID)
					assert.Positive(t, h.Score)
				}
			}
		})
	}
}

func TestLineSearcher_HitCarriesAssignment(t *testing.T) {
	for _, backend := range SearchBackends {
		t.Run(string(backend), func(t *testing.T) {
			s, _ := newTestStore(t)
			ctx := context.Background()
			_, err := s.SaveRun(ctx, searchRun())
			require.NoError(t, err)
			searcher, err := NewLineSearcher(s, string(backend))
			require.NoError(t, err)

			hits, err := searcher.Search(ctx, "peer 10.0.0.2", SearchOptions{})

			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, 0, hits[0].Cluster)
			assert.Equal(t, "connection reset by peer 10.0.0.2", hits[0].Line)
		})
	}
}

func TestLineSearcher_RunFilterAndLimit(t *testing.T) {
	for _, backend := range SearchBackends {
		t.Run(string(backend), func(t *testing.T) {
			// Given: two runs with the same lines
			s, _ := newTestStore(t)
			ctx := context.Background()
			_, err := s.SaveRun(ctx, searchRun())
			require.NoError(t, err)
			second, err := s.SaveRun(ctx, searchRun())
			require.NoError(t, err)
			searcher, err := NewLineSearcher(s, string(backend))
			require.NoError(t, err)

			// When: searching every run, one run, and with a limit
			all, err := searcher.Search(ctx, "connection", SearchOptions{})
			require.NoError(t, err)
			one, err := searcher.Search(ctx, "connection", SearchOptions{RunID: second})
			require.NoError(t, err)
			limited, err := searcher.Search(ctx, "connection", SearchOptions{Limit: 2})
			require.NoError(t, err)

			// Then
			assert.Len(t, all, 6)
			require.Len(t, one, 3)
			for _, h := range one {
				assert.Equal(t, second, h.RunID)
			}
			assert.Len(t, limited, 2)
		})
	}
}

func TestLineSearcher_UnknownRun(t *testing.T) {
	s, _ := newTestStore(t)
	searcher, err := NewLineSearcher(s, string(SearchBackendBleve))
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "x", SearchOptions{RunID: 7})

	assert.Equal(t, apperrors.ErrCodeRunNotFound, apperrors.GetCode(err))
}

func TestNewLineSearcher_UnknownBackend(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := NewLineSearcher(s, "hnsw")

	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestStore_DeleteRunDropsIndexedLines(t *testing.T) {
	// Given: a stored run
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, err := s.SaveRun(ctx, searchRun())
	require.NoError(t, err)

	// When: it is deleted
	require.NoError(t, s.DeleteRun(ctx, id))

	// Then: its lines no longer match
	hits, err := s.SearchLines(ctx, "connection", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
