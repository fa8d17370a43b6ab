package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "1789", CreatedAt: "2024-01-02T03:04:05Z"})
	require.NoError(t, err)
	assert.NotContains(t, token, "=")

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "1789", cursor.ID)
	assert.Equal(t, "2024-01-02T03:04:05Z", cursor.CreatedAt)
}

func TestTrim(t *testing.T) {
	a, b, c := 1, 2, 3
	rows := []*int{&a, &b, &c}
	token := func(v *int) string { return string(rune('0' + *v)) }

	page, info := Trim(rows, 2, token)
	assert.Len(t, page, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	page, info = Trim(rows, 5, token)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
