package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("01-03-2026")
	assert.Error(t, err)
	_, err = ParseDate("2026-3-1")
	assert.Error(t, err)
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("2026-03-01"))
	assert.False(t, IsValidDate(""))
	assert.False(t, IsValidDate("2026-13-01"))
	assert.False(t, IsValidDate("tomorrow"))
}

func TestTodayDate(t *testing.T) {
	assert.True(t, IsValidDate(TodayDate()))
}

func TestPtrEqual(t *testing.T) {
	a, b := 5, 5
	c := 6

	assert.True(t, PtrEqual[int](nil, nil))
	assert.True(t, PtrEqual(&a, &b))
	assert.False(t, PtrEqual(&a, &c))
	assert.False(t, PtrEqual(&a, nil))
}
