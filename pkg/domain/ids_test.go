package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "realtyvest/pkg/domain-errors"
)

// TestParseUserID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUserID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseUserID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(valid), id)
		assert.Equal(t, valid.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

func TestParseBlobID(t *testing.T) {
	blob := NewBlobID()
	parsed, err := ParseBlobID(blob.String())
	require.NoError(t, err)
	assert.Equal(t, blob, parsed)
}

func TestUserID_JSONUsesUUIDString(t *testing.T) {
	userID := UserID(uuid.New())

	data, err := json.Marshal(map[string]UserID{"user_id": userID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`"}`, string(data))

	var decoded map[string]UserID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, userID, decoded["user_id"])
}
