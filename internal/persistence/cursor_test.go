package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	original := &domain.Cursor{
		CreatedAt: time.Date(2026, time.March, 14, 10, 30, 0, 123456789, time.UTC),
		ID:        "act-42",
	}

	token := EncodeCursor(original)
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.True(t, decoded.CreatedAt.Equal(original.CreatedAt))
	require.Equal(t, original.ID, decoded.ID)
}

func TestCursorNilAndEmpty(t *testing.T) {
	require.Empty(t, EncodeCursor(nil))

	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	require.Nil(t, decoded)

	decoded, err = DecodeCursor("   ")
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!!not-base64!!!")
	require.Error(t, err)

	// Valid base64 but no separator.
	_, err = DecodeCursor("bm9zZXBhcmF0b3I=")
	require.Error(t, err)

	// Separator present but the timestamp is junk.
	_, err = DecodeCursor("anVua3xhY3QtMQ==")
	require.Error(t, err)
}
