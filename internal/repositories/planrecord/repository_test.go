package planrecord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

func TestBuildBulkStatusUpdate(t *testing.T) {
	t.Run("should render one value tuple per update", func(t *testing.T) {
		now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
		query, args, err := buildBulkStatusUpdate("plan_records", []models.RecordStatusUpdate{
			{ID: 1, Status: models.StatusOK, NormalizedAt: &now},
			{ID: 2, Status: models.StatusError, Notes: "store not found: Guatire 2", Unresolved: []models.UnresolvedField{
				{Kind: models.KindStore, Field: models.FieldStore, RawValue: "Guatire 2"},
			}, NormalizedAt: &now},
		})
		require.NoError(t, err)

		assert.Contains(t, query, "UPDATE plan_records AS r")
		assert.Contains(t, query, "($1::bigint, $2::text, $3::text, $4::jsonb, $5::timestamptz)")
		assert.Contains(t, query, "($6::bigint, $7::text, $8::text, $9::jsonb, $10::timestamptz)")
		assert.Contains(t, query, "WHERE r.id = v.id")

		require.Len(t, args, 10)
		assert.Equal(t, int64(1), args[0])
		assert.Equal(t, models.StatusOK, args[1])
		// Empty unresolved marshals to an empty array, not null
		assert.Equal(t, "[]", args[3])
		assert.Contains(t, args[8], `"raw_value":"Guatire 2"`)
	})
}

func TestBuildStatusReset(t *testing.T) {
	t.Run("should clear failure details when requeueing", func(t *testing.T) {
		query, args := buildStatusReset("plan_records", []string{"store_name"}, " Guatire I ", []string{models.StatusError}, models.StatusPending)

		assert.Contains(t, query, "UPDATE plan_records")
		assert.Contains(t, query, "unresolved = '[]'::jsonb")
		assert.Contains(t, query, "normalized_at = NULL")
		assert.Contains(t, query, "lower(trim(store_name))")
		// Raw value matched through the same key normalization as the resolver
		assert.Contains(t, args, "guatire i")
		assert.Contains(t, args, models.StatusPending)
	})

	t.Run("should keep a note and clear the stamp when flipping to ignored", func(t *testing.T) {
		query, args := buildStatusReset("plan_records", []string{"store_name"}, "Test Y", []string{models.StatusError}, models.StatusIgnored)

		assert.Contains(t, query, "normalized_at = NULL")
		assert.Contains(t, args, "ignored by configuration")
		assert.Contains(t, args, models.StatusIgnored)
	})
}

func TestBuildProductCodeRewrite(t *testing.T) {
	t.Run("should rewrite the raw code and requeue", func(t *testing.T) {
		query, args := buildProductCodeRewrite("plan_records", "item_code", " SKU-1OO ", "SKU-100", []string{models.StatusOK, models.StatusError})

		assert.Contains(t, query, "UPDATE plan_records")
		assert.Contains(t, query, "unresolved = '[]'::jsonb")
		assert.Contains(t, query, "normalized_at = NULL")
		assert.Contains(t, query, "lower(trim(item_code))")
		assert.Contains(t, args, "SKU-100")
		assert.Contains(t, args, "sku-1oo")
		assert.Contains(t, args, models.StatusPending)
	})
}

func TestRawColumnsFor(t *testing.T) {
	t.Run("should map kinds to their raw columns", func(t *testing.T) {
		assert.Equal(t, []string{"center_name"}, rawColumnsFor(models.KindCenter))
		assert.Equal(t, []string{"store_name"}, rawColumnsFor(models.KindStore))
		assert.Equal(t, []string{"item_code"}, rawColumnsFor(models.KindProduct))
		assert.Nil(t, rawColumnsFor(models.EntityKind("other")))
	})
}
