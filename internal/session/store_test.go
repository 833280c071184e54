package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
	"github.com/ChamsBouzaiene/aichat/internal/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history"), zap.NewNop())
	require.NoError(t, err)
	return store
}

type pair struct {
	Role    chat.Role
	Content string
}

func pairs(msgs []chat.Message) []pair {
	out := make([]pair, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, pair{m.Role, m.Content})
	}
	return out
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "history")
	store, err := NewStore(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := New(providers.Claude, "claude-3-opus-20240229")
	sess.Title = "Kept title"
	sess.Append(chat.NewMessage(chat.RoleUser, "Hello"))
	sess.Append(chat.NewMessage(chat.RoleAssistant, "Hi there"))
	sess.Append(chat.NewMessage(chat.RoleSystem, "not persisted"))

	saved, err := store.Save(sess)
	require.NoError(t, err)
	require.True(t, saved)
	assert.FileExists(t, store.Path(sess.ID))

	loaded, err := store.Load(sess.ID)
	require.NoError(t, err)

	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "Kept title", loaded.Title)
	assert.Equal(t, providers.Claude, loaded.Provider)
	assert.Equal(t, "claude-3-opus-20240229", loaded.Model)
	assert.Equal(t, pairs(sess.Messages), pairs(loaded.Messages))
	assert.Len(t, loaded.Messages, 2)
}

func TestStore_SaveSkipsEmptySession(t *testing.T) {
	store := newTestStore(t)
	sess := New(providers.OpenAI, "gpt-4o")

	saved, err := store.Save(sess)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.NoFileExists(t, store.Path(sess.ID))
	assert.Empty(t, store.List())
}

func TestStore_SaveDerivesTitleOnce(t *testing.T) {
	store := newTestStore(t)
	sess := New(providers.OpenAI, "gpt-4o")
	long := "Explain the difference between goroutines and threads please"
	sess.Append(chat.NewMessage(chat.RoleUser, long))

	_, err := store.Save(sess)
	require.NoError(t, err)
	assert.Equal(t, "Explain the difference between...", sess.Title)

	sess.Append(chat.NewMessage(chat.RoleAssistant, "Sure"))
	sess.Append(chat.NewMessage(chat.RoleUser, "Another question"))
	_, err = store.Save(sess)
	require.NoError(t, err)
	assert.Equal(t, "Explain the difference between...", sess.Title)

	short := New(providers.OpenAI, "gpt-4o")
	short.Append(chat.NewMessage(chat.RoleUser, "hello"))
	_, err = store.Save(short)
	require.NoError(t, err)
	assert.Equal(t, "hello", short.Title)
}

func TestStore_LoadErrors(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("12345")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Load("../escape")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(store.Path("111"), []byte("{not json"), 0644))
	_, err = store.Load("111")
	assert.ErrorIs(t, err, ErrMalformed)

	require.NoError(t, os.WriteFile(store.Path("222"), []byte(`{"id":"222","title":"x","provider":"openai"}`), 0644))
	_, err = store.Load("222")
	assert.ErrorIs(t, err, ErrMalformed, "missing messages")

	bad := `{"id":"333","title":"x","provider":"openai","model":"gpt-4o","messages":[{"role":"system","content":"x"}]}`
	require.NoError(t, os.WriteFile(store.Path("333"), []byte(bad), 0644))
	_, err = store.Load("333")
	assert.ErrorIs(t, err, ErrMalformed, "system role is not a persisted role")

	other := `{"id":"999","title":"x","provider":"openai","model":"gpt-4o","messages":[]}`
	require.NoError(t, os.WriteFile(store.Path("444"), []byte(other), 0644))
	_, err = store.Load("444")
	assert.ErrorIs(t, err, ErrMalformed, "id must match the file name")
}

func TestStore_LoadKeepsUnknownProvider(t *testing.T) {
	store := newTestStore(t)
	rec := `{"id":"555","title":"Old","provider":"mistral","model":"large","messages":[{"role":"user","content":"hi"}]}`
	require.NoError(t, os.WriteFile(store.Path("555"), []byte(rec), 0644))

	sess, err := store.Load("555")
	require.NoError(t, err)
	assert.Equal(t, providers.Provider("mistral"), sess.Provider)
	assert.Equal(t, "large", sess.Model)
}

func TestStore_ListSortsNewestFirstAndSkipsCorrupt(t *testing.T) {
	store := newTestStore(t)

	ids := []string{"1700000000000", "1700000300000", "1700000100000"}
	for _, id := range ids {
		sess := &Session{
			ID:       id,
			Title:    "chat " + id,
			Provider: providers.Gemini,
			Model:    "gemini-1.5-pro",
		}
		sess.Append(chat.NewMessage(chat.RoleUser, "hi "+id))
		_, err := store.Save(sess)
		require.NoError(t, err)
	}

	// corrupt files interleaved by name
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "1700000050000.json"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "1700000200000.json"), []byte(`{"title":"no id"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "1700000400000.json"), []byte(`[1,2,3]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "sub.json"), 0755))

	list := store.List()
	require.Len(t, list, 3)

	got := make([]string, 0, len(list))
	for _, m := range list {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{"1700000300000", "1700000100000", "1700000000000"}, got)
	assert.Equal(t, "chat 1700000300000", list[0].Title)
	assert.Equal(t, "gemini", list[0].Provider)
	assert.Equal(t, time.UnixMilli(1700000300000), list[0].Timestamp)
}

func TestStore_ListFallsBackForDisplayFields(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path("42"), []byte(`{"id":"42","messages":[]}`), 0644))

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Untitled Chat", list[0].Title)
	assert.Equal(t, "unknown", list[0].Provider)

	sess, err := store.Load("42")
	require.NoError(t, err)
	assert.Empty(t, sess.Title)
	assert.Empty(t, sess.Model)
}

func TestStore_ListOnlyShowsLoadableRecords(t *testing.T) {
	store := newTestStore(t)

	sess := New(providers.OpenAI, "gpt-4o")
	sess.Append(chat.NewMessage(chat.RoleUser, "complete"))
	_, err := store.Save(sess)
	require.NoError(t, err)

	// half-written record, role outside the persisted set, id not matching the file
	files := map[string]string{
		"1700000000000": `{"id":"1700000000000","title":"half"}`,
		"1700000000001": `{"id":"1700000000001","messages":[{"role":"system","content":"x"}]}`,
		"1700000000002": `{"id":"1700000000099","title":"moved","messages":[]}`,
	}
	for id, body := range files {
		require.NoError(t, os.WriteFile(store.Path(id), []byte(body), 0644))
	}

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)

	for _, meta := range list {
		_, err := store.Load(meta.ID)
		assert.NoError(t, err, "listed record %s must load", meta.ID)
	}
	for id := range files {
		_, err := store.Load(id)
		assert.ErrorIs(t, err, ErrMalformed, "record %s", id)
	}
}

func TestStore_ListMissingDirectory(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.RemoveAll(store.Dir()))
	assert.Empty(t, store.List())
}

func TestNew_IDsAreUniqueAndOrdered(t *testing.T) {
	a := New(providers.OpenAI, "gpt-4o")
	b := New(providers.OpenAI, "gpt-4o")

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, b.Timestamp().After(a.Timestamp()))
	assert.Equal(t, DefaultTitle, a.Title)
	assert.Equal(t, 0, a.TurnCount())
}

func TestDeriveTitle(t *testing.T) {
	_, ok := DeriveTitle([]chat.Message{chat.NewMessage(chat.RoleAssistant, "only me")})
	assert.False(t, ok)

	title, ok := DeriveTitle([]chat.Message{
		chat.NewMessage(chat.RoleAssistant, "ignored"),
		chat.NewMessage(chat.RoleUser, strings.Repeat("é", 31)),
	})
	assert.True(t, ok)
	assert.Equal(t, strings.Repeat("é", 30)+"...", title)
}
