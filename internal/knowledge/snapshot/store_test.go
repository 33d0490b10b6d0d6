package snapshot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func appleSynset() *core.Synset {
	return &core.Synset{
		ID:          "bn:00005054n",
		ResourceIDs: []string{"wn:07739125n"},
		Senses: []core.Sense{
			{Lemma: "apple", Language: core.English, Source: core.SourceWordNet, SenseKey: "apple%1:13:00::"},
			{Lemma: "Apple", Language: core.English, Source: core.SourceWikipedia},
		},
		Glosses: []core.Gloss{
			{Text: "fruit with red or yellow or green skin", Language: core.English, Source: core.SourceWordNet},
			{Text: "frutto", Language: "IT", Source: core.SourceOMWN},
		},
		Examples: []core.Example{
			{Text: "an apple a day", Language: core.English, Source: core.SourceWordNet},
		},
		Edges: []core.Edge{
			{Pointer: core.GlossMonosemous, Target: "bn:3", Language: core.English},
			{Pointer: core.GlossDisambiguated, Target: "bn:1", Language: core.English},
			{Pointer: core.GlossDisambiguated, Target: "bn:2", Language: core.English},
		},
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestStore_PutAndResolve(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, appleSynset()))

	for _, id := range []string{"bn:00005054n", "wn:07739125n"} {
		got, err := s.Synset(ctx, id)
		require.NoError(t, err, id)
		require.NotNil(t, got, id)

		assert.Equal(t, "bn:00005054n", got.ID)
		assert.Equal(t, []string{"wn:07739125n"}, got.ResourceIDs)
		assert.Equal(t, []string{"fruit with red or yellow or green skin"}, got.GlossesIn(core.English))
		assert.Equal(t, []string{"an apple a day"}, got.ExamplesIn(core.English))

		sense, ok := got.MainSense(core.English)
		require.True(t, ok)
		assert.Equal(t, "apple%1:13:00::", sense.SenseKey)
	}
}

func TestStore_SynsetMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Synset(context.Background(), "wn:99999999n")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_OutgoingEdgesKeepOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, appleSynset()))

	synset := &core.Synset{ID: "bn:00005054n"}
	dis, err := s.OutgoingEdges(ctx, synset, core.GlossDisambiguated)
	require.NoError(t, err)
	require.Len(t, dis, 2)
	assert.Equal(t, "bn:1", dis[0].Target)
	assert.Equal(t, "bn:2", dis[1].Target)

	mono, err := s.OutgoingEdges(ctx, synset, core.GlossMonosemous)
	require.NoError(t, err)
	require.Len(t, mono, 1)
	assert.Equal(t, "bn:3", mono[0].Target)
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, appleSynset()))

	updated := appleSynset()
	updated.Glosses = []core.Gloss{{Text: "pome", Language: core.English, Source: core.SourceWordNet}}
	updated.Edges = []core.Edge{{Pointer: core.GlossDisambiguated, Target: "bn:9"}}
	require.NoError(t, s.Put(ctx, updated))

	got, err := s.Synset(ctx, "wn:07739125n")
	require.NoError(t, err)
	assert.Equal(t, []string{"pome"}, got.GlossesIn(core.English))

	edges, err := s.OutgoingEdges(ctx, got, core.GlossDisambiguated)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "bn:9", edges[0].Target)

	mono, err := s.OutgoingEdges(ctx, got, core.GlossMonosemous)
	require.NoError(t, err)
	assert.Empty(t, mono)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_PutKeepsEdgesAndResourceIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, appleSynset()))

	// A bare copy, as written for an edge target, must not erase the fuller record.
	bare := &core.Synset{ID: "bn:00005054n", Senses: []core.Sense{
		{Lemma: "apple", Language: core.English, Source: core.SourceWordNet, SenseKey: "apple%1:13:00::"},
	}}
	require.NoError(t, s.Put(ctx, bare))

	got, err := s.Synset(ctx, "wn:07739125n")
	require.NoError(t, err)
	require.NotNil(t, got, "resource id must still resolve")
	assert.Len(t, got.Senses, 1)

	edges, err := s.OutgoingEdges(ctx, got, core.GlossDisambiguated)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestStore_ImportDump(t *testing.T) {
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "synsets.jsonl")
	dump, err := store.OpenDump(dumpPath)
	require.NoError(t, err)
	require.NoError(t, dump.Append(appleSynset()))
	require.NoError(t, dump.Append(&core.Synset{ID: "bn:1", Senses: []core.Sense{
		{Lemma: "fruit", Language: core.English, Source: core.SourceWordNet, SenseKey: "fruit%1:20:00::"},
	}}))
	require.NoError(t, dump.Close())

	s := openTestStore(t)
	ctx := context.Background()
	n, err := s.ImportDump(ctx, dumpPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := s.Synset(ctx, "bn:1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Senses, 1)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, appleSynset()))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Synset(ctx, "wn:07739125n")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestStore_Closed(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Synset(context.Background(), "bn:1")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrNotOpen)
	assert.NoError(t, s.Close())
}

func TestStore_CloseDuringLookups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, appleSynset()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				// Either a result or an error, never a race.
				_, _ = s.Synset(ctx, "wn:07739125n")
			}
		}()
	}
	require.NoError(t, s.Close())
	wg.Wait()

	_, err := s.Synset(ctx, "wn:07739125n")
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestStore_Ping(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
