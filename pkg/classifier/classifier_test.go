package classifier

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
)

type staticCenters []models.DistributionCenter

func (s staticCenters) List(context.Context) ([]models.DistributionCenter, error) { return s, nil }

type staticStores []models.Store

func (s staticStores) List(context.Context) ([]models.Store, error) { return s, nil }

type staticProducts []models.Product

func (s staticProducts) List(context.Context) ([]models.Product, error) { return s, nil }

type noAliases struct{}

func (noAliases) ListCenterAliases(context.Context) ([]models.CenterAlias, error) { return nil, nil }
func (noAliases) ListStoreAliases(context.Context) ([]models.StoreAlias, error)   { return nil, nil }

type noIgnores struct{}

func (noIgnores) ListIgnored(context.Context, models.EntityKind) ([]models.IgnoredName, error) {
	return nil, nil
}

func suggestionIndex(t *testing.T) *refindex.Index {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	b := refindex.NewBuilder(
		logger,
		staticCenters{{ID: 1, Name: "CEDIS Valencia", Code: "VAL"}, {ID: 2, Name: "CEDIS Barquisimeto", Code: "BQT"}},
		staticStores{
			{ID: 1, Name: "Guatire 1"},
			{ID: 2, Name: "Guatire 2"},
			{ID: 3, Name: "Guarenas"},
			{ID: 4, Name: "Charallave"},
		},
		staticProducts{{ID: 1, Code: "SKU-100"}},
		noAliases{},
		noIgnores{},
	)
	idx, err := b.Build(context.Background())
	require.NoError(t, err)
	return idx
}

func TestClassify(t *testing.T) {
	idx := suggestionIndex(t)
	c := New()

	t.Run("should rank the closest store first", func(t *testing.T) {
		groups := c.Classify(idx, []ErrorRecord{
			{ID: 11, Unresolved: []models.UnresolvedField{{Kind: models.KindStore, Field: models.FieldDestination, RawValue: "Guatire I"}}},
		})
		require.Len(t, groups, 1)

		g := groups[0]
		assert.Equal(t, models.KindStore, g.Kind)
		assert.Equal(t, "Guatire I", g.RawValue)
		assert.Equal(t, []int64{11}, g.RecordIDs)

		require.NotEmpty(t, g.Suggestions)
		assert.Equal(t, "Guatire 1", g.Suggestions[0].Value)
		assert.GreaterOrEqual(t, g.Suggestions[0].Score, 0.6)
		assert.LessOrEqual(t, len(g.Suggestions), 3)
		for i := 1; i < len(g.Suggestions); i++ {
			assert.LessOrEqual(t, g.Suggestions[i].Score, g.Suggestions[i-1].Score)
		}
	})

	t.Run("should group records sharing a raw value", func(t *testing.T) {
		groups := c.Classify(idx, []ErrorRecord{
			{ID: 1, Unresolved: []models.UnresolvedField{{Kind: models.KindCenter, Field: models.FieldOrigin, RawValue: "CEDIS Valencai"}}},
			{ID: 2, Unresolved: []models.UnresolvedField{{Kind: models.KindCenter, Field: models.FieldOrigin, RawValue: "cedis valencai"}}},
			{ID: 3, Unresolved: []models.UnresolvedField{{Kind: models.KindStore, Field: models.FieldDestination, RawValue: "Guatire I"}}},
		})
		require.Len(t, groups, 2)

		// Largest group first
		assert.Equal(t, models.KindCenter, groups[0].Kind)
		assert.Equal(t, 2, groups[0].Count)
		assert.Equal(t, []int64{1, 2}, groups[0].RecordIDs)
		require.NotEmpty(t, groups[0].Suggestions)
		assert.Equal(t, "CEDIS Valencia", groups[0].Suggestions[0].Value)
	})

	t.Run("should return no suggestions below the cutoff", func(t *testing.T) {
		groups := c.Classify(idx, []ErrorRecord{
			{ID: 5, Unresolved: []models.UnresolvedField{{Kind: models.KindStore, Field: models.FieldDestination, RawValue: "zzzzzzzzzzzz"}}},
		})
		require.Len(t, groups, 1)
		assert.Empty(t, groups[0].Suggestions)
	})

	t.Run("should split one record across multiple unresolved fields", func(t *testing.T) {
		groups := c.Classify(idx, []ErrorRecord{
			{ID: 9, Unresolved: []models.UnresolvedField{
				{Kind: models.KindCenter, Field: models.FieldOrigin, RawValue: "CEDIS Valnecia"},
				{Kind: models.KindProduct, Field: models.FieldProduct, RawValue: "SKU-101"},
			}},
		})
		require.Len(t, groups, 2)
		kinds := []models.EntityKind{groups[0].Kind, groups[1].Kind}
		assert.ElementsMatch(t, []models.EntityKind{models.KindCenter, models.KindProduct}, kinds)
	})

	t.Run("should return empty output for no records", func(t *testing.T) {
		assert.Empty(t, c.Classify(idx, nil))
	})
}

func TestScorer(t *testing.T) {
	s := NewScorer()

	t.Run("should score identical strings as 1", func(t *testing.T) {
		assert.Equal(t, 1.0, s.Similarity("Guatire 1", "guatire 1"))
	})

	t.Run("should score one edit on nine characters above the cutoff", func(t *testing.T) {
		score := s.Similarity("Guatire I", "Guatire 1")
		assert.InDelta(t, 1.0-1.0/9.0, score, 0.0001)
	})

	t.Run("should score disjoint strings near zero", func(t *testing.T) {
		assert.Less(t, s.Similarity("abc", "xyz"), 0.1)
	})

	t.Run("should compute edit distance", func(t *testing.T) {
		assert.Equal(t, 0, s.LevenshteinDistance("abc", "abc"))
		assert.Equal(t, 3, s.LevenshteinDistance("", "abc"))
		assert.Equal(t, 1, s.LevenshteinDistance("guatire i", "guatire 1"))
	})

	t.Run("should boost shared prefixes in jaro-winkler", func(t *testing.T) {
		assert.Greater(t, s.JaroWinkler("guatire i", "guatire 1"), s.Jaro("guatire i", "guatire 1"))
	})
}
