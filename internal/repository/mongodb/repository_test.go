package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

func TestCommitsQuery_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int64
		want  int64
	}{
		{"zero uses default", 0, defaultListLimit},
		{"negative uses default", -5, defaultListLimit},
		{"explicit", 7, 7},
		{"at cap", maxListLimit, maxListLimit},
		{"above cap", 5000, maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, opts := commitsQuery(4, tt.limit)

			assert.Equal(t, bson.M{"week_id": int64(4)}, filter)
			require.NotNil(t, opts.Limit)
			assert.Equal(t, tt.want, *opts.Limit)
			assert.Equal(t, bson.D{{Key: "committed_at", Value: -1}}, opts.Sort)
		})
	}
}

func TestCommitRecord_StoredKeysMatchQuery(t *testing.T) {
	record := models.CommitRecord{
		ID:          "c1",
		WeekID:      4,
		DetailIDs:   []int64{10},
		Updated:     1,
		CommittedAt: time.Date(2024, 5, 8, 14, 30, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(record)
	require.NoError(t, err)
	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, "c1", doc["_id"])
	assert.Equal(t, int64(4), doc["week_id"])
	assert.Contains(t, doc, "committed_at")
	assert.NotContains(t, doc, "role")
}
