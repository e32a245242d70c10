package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFingerprint_Deterministic(t *testing.T) {
	k := Key{Prompt: "hello", Model: "claude-sonnet-4-5", Temperature: 0.7, MaxTokens: 4096}
	assert.Equal(t, Fingerprint(k), Fingerprint(k))
	assert.Len(t, Fingerprint(k), 64)
}

func TestFingerprint_SensitiveToEveryField(t *testing.T) {
	base := Key{Prompt: "hello", Model: "claude-sonnet-4-5", Temperature: 0.7, System: "be brief", MaxTokens: 4096}

	variants := []Key{
		{Prompt: "hello!", Model: base.Model, Temperature: base.Temperature, System: base.System, MaxTokens: base.MaxTokens},
		{Prompt: base.Prompt, Model: "claude-haiku-4-5", Temperature: base.Temperature, System: base.System, MaxTokens: base.MaxTokens},
		{Prompt: base.Prompt, Model: base.Model, Temperature: 0.2, System: base.System, MaxTokens: base.MaxTokens},
		{Prompt: base.Prompt, Model: base.Model, Temperature: base.Temperature, System: "be verbose", MaxTokens: base.MaxTokens},
		{Prompt: base.Prompt, Model: base.Model, Temperature: base.Temperature, System: base.System, MaxTokens: 1024},
	}

	for _, v := range variants {
		assert.NotEqual(t, Fingerprint(base), Fingerprint(v))
	}
}

func TestStore_PutLookupRoundTrip(t *testing.T) {
	s := newTestStore(t)

	entry := Entry{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Response: Response{
			Text:             `{"a":1}`,
			PromptTokens:     1000,
			CompletionTokens: 500,
			TotalCost:        0.0105,
			Model:            "claude-sonnet-4-5",
			LatencyMs:        842,
		},
	}
	fp := Fingerprint(Key{Prompt: "hello", Model: "claude-sonnet-4-5"})

	require.NoError(t, s.Put(fp, entry))

	got, ok, err := s.Lookup(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Response, got.Response)
}

func TestStore_LookupMiss(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Lookup("deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PutOverwritesSameFingerprint(t *testing.T) {
	s := newTestStore(t)
	fp := Fingerprint(Key{Prompt: "hello"})

	require.NoError(t, s.Put(fp, Entry{Timestamp: time.Now(), Response: Response{Text: "first"}}))
	require.NoError(t, s.Put(fp, Entry{Timestamp: time.Now(), Response: Response{Text: "second"}}))

	got, ok, err := s.Lookup(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Response.Text)
}

func TestStore_PruneOlderThan(t *testing.T) {
	s := newTestStore(t)

	old := Entry{Timestamp: time.Now().Add(-48 * time.Hour), Response: Response{Text: "old"}}
	fresh := Entry{Timestamp: time.Now(), Response: Response{Text: "fresh"}}

	require.NoError(t, s.Put("old-key", old))
	require.NoError(t, s.Put("fresh-key", fresh))

	n, err := s.PruneOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := s.Lookup("old-key")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Lookup("fresh-key")
	require.NoError(t, err)
	assert.True(t, ok)
}
