package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/renameio/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "nested", "cache"), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestSetThenGetRoundTrips(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"season_2023": map[string]any{"MRData": map[string]any{"total": "22", "RaceTable": map[string]any{"Races": []any{}}}},
		"list":        []any{1.0, "two", nil, true},
		"scalar":      42.5,
	}
	c := newTestCache(t)
	for key, v := range values {
		require.NoError(t, c.Set(key, v))
		var got any
		require.True(t, c.Get(key, &got), "expected hit for %s", key)
		if diff := cmp.Diff(v, got); diff != "" {
			t.Fatalf("round trip mismatch for %s (-want +got):\n%s", key, diff)
		}
	}
}

func TestSetCreatesDirectoryAndPrettyPrints(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, c.Set("race_2023_1", []byte(`{"a":{"b":[1,2]}}`)))

	data, err := os.ReadFile(filepath.Join(c.Dir(), "race_2023_1.json"))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": {\n    \"b\": [\n      1,\n      2\n    ]\n  }\n}", string(data))
}

func TestSetRejectsInvalidRawBody(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.Error(t, c.Set("broken", []byte(`{"a":`)))
	var out any
	require.False(t, c.Get("broken", &out))
}

func TestGetTreatsCorruptEntryAsMiss(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, os.MkdirAll(c.Dir(), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "season_2020.json"), []byte(`{"MRData": {"RaceTa`), 0o600))

	var out map[string]any
	require.False(t, c.Get("season_2020", &out))
	require.Nil(t, out)
}

func TestCrashBeforeRenameKeepsPreviousValue(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, c.Set("season_2023", map[string]any{"version": 1.0}))

	crash := errors.New("simulated crash")
	c.commit = func(*renameio.PendingFile) error { return crash }
	err := c.Set("season_2023", map[string]any{"version": 2.0})
	require.ErrorIs(t, err, crash)

	var got map[string]any
	require.True(t, c.Get("season_2023", &got))
	require.Equal(t, 1.0, got["version"])

	// A crash on a fresh key leaves it absent.
	require.Error(t, c.Set("season_2024", map[string]any{"version": 1.0}))
	require.False(t, c.Get("season_2024", &got))
}

func TestLeftoverTempFileIsIgnored(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, c.Set("season_2022", map[string]any{"ok": true}))
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), ".season_2022.json123"), []byte(`{"ok": tr`), 0o600))

	var got map[string]any
	require.True(t, c.Get("season_2022", &got))
	st, err := c.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, st.Count)
}

func TestClearWithPattern(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	for _, key := range []string{"season_2022", "season_2023", "race_2023_1", "race_2023_2"} {
		require.NoError(t, c.Set(key, map[string]string{"key": key}))
	}

	removed, err := c.Clear("race_2023_*")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	var out any
	require.True(t, c.Get("season_2022", &out))
	require.False(t, c.Get("race_2023_1", &out))

	removed, err = c.Clear("")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	_, err = c.Clear("[")
	require.Error(t, err)
	_, err = c.Clear("../*")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.NoError(t, c.Set("season_2021", map[string]int{"n": 1}))
	require.True(t, c.Invalidate("season_2021"))
	require.False(t, c.Invalidate("season_2021"))
}

func TestStats(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	st, err := c.Stats()
	require.NoError(t, err)
	require.Zero(t, st.Count)

	require.NoError(t, c.Set("a", map[string]int{"n": 1}))
	require.NoError(t, c.Set("b", map[string]int{"n": 22}))

	st, err = c.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, st.Count)
	require.Positive(t, st.TotalSize)
	require.False(t, st.Oldest.After(st.Newest))
}

func TestKeysCannotEscapeDirectory(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	for _, key := range []string{"", "..", "../evil", "a/b", `a\b`, ".hidden"} {
		err := c.Set(key, 1)
		require.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
		var out any
		require.False(t, c.Get(key, &out))
	}
	require.False(t, strings.Contains(c.Dir(), ".."))
}

func TestNewRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := New("  ", nil)
	require.Error(t, err)
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	var d Disabled
	require.NoError(t, d.Set("k", 1))
	var out any
	require.False(t, d.Get("k", &out))
}
