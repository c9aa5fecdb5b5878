package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

func TestCursor_EncodeDecode(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC), ID: 42}

	got, err := Decode(c.Encode())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, uint64(42), got.ID)
}

func TestDecode_Empty(t *testing.T) {
	got, err := Decode("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecode_Invalid(t *testing.T) {
	for _, tok := range []string{"!!!", "bm9jb2xvbg", "YWJjOjE", "MTI6eHl6"} {
		_, err := Decode(tok)
		assert.ErrorIs(t, err, domain.ErrInvalidCursor, tok)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 20, NormalizeLimit(0, 20, 100))
	assert.Equal(t, 5, NormalizeLimit(5, 20, 100))
	assert.Equal(t, 100, NormalizeLimit(500, 20, 100))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-1, 0, 0))
}

func TestSlice(t *testing.T) {
	key := func(n int) Cursor { return Cursor{ID: uint64(n)} }

	p := Slice([]int{5, 4, 3}, 2, key)
	assert.Equal(t, []int{5, 4}, p.Items)
	require.NotNil(t, p.NextCursor)
	assert.Equal(t, uint64(3), p.NextCursor.ID)
	assert.NotEmpty(t, p.Token())

	p = Slice([]int{5, 4}, 2, key)
	assert.Equal(t, []int{5, 4}, p.Items)
	assert.Nil(t, p.NextCursor)
	assert.Empty(t, p.Token())
}
