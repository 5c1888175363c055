package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Monotonic(t *testing.T) {
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))

	seen := make(map[string]struct{}, len(ids))
	for _, s := range ids {
		_, dup := seen[s]
		require.False(t, dup, "duplicate id %s", s)
		seen[s] = struct{}{}
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Truncate(time.Millisecond)
	ts, err := Time(New())
	require.NoError(t, err)
	assert.False(t, ts.Before(before))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
