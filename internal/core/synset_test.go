package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSynset() *Synset {
	return &Synset{
		ID:          "bn:00005054n",
		ResourceIDs: []string{"wn:07739125n"},
		Senses: []Sense{
			{Lemma: "mela", Language: "IT", Source: SourceOMWN, SenseKey: ""},
			{Lemma: "apple", Language: English, Source: SourceWordNet, SenseKey: "apple%1:13:00::"},
			{Lemma: "Apple", Language: English, Source: SourceWikipedia},
		},
		Glosses: []Gloss{
			{Text: "fruit with red or yellow skin", Language: English, Source: SourceWordNet},
			{Text: "frutto del melo", Language: "IT", Source: SourceOMWN},
			{Text: "edible pome", Language: English, Source: SourceWikipedia},
		},
		Examples: []Example{
			{Text: "she ate an apple", Language: English, Source: SourceWordNet},
		},
		Edges: []Edge{
			{Pointer: GlossMonosemous, Target: "bn:3"},
			{Pointer: GlossDisambiguated, Target: "bn:1"},
			{Pointer: "@", Target: "bn:9"},
			{Pointer: GlossDisambiguated, Target: "bn:2"},
		},
	}
}

func TestSynset_GlossesIn(t *testing.T) {
	s := testSynset()
	assert.Equal(t, []string{"fruit with red or yellow skin", "edible pome"}, s.GlossesIn(English))
	assert.Equal(t, []string{"frutto del melo"}, s.GlossesIn("IT"))
	assert.Empty(t, s.GlossesIn("DE"))
}

func TestSynset_ExamplesIn(t *testing.T) {
	s := testSynset()
	assert.Equal(t, []string{"she ate an apple"}, s.ExamplesIn(English))
	assert.Empty(t, s.ExamplesIn("IT"))
}

func TestSynset_MainSense(t *testing.T) {
	s := testSynset()

	sense, ok := s.MainSense(English)
	require.True(t, ok)
	assert.Equal(t, "apple%1:13:00::", sense.SenseKey)
	assert.Equal(t, SourceWordNet, sense.Source)

	_, ok = s.MainSense("DE")
	assert.False(t, ok)
}

func TestSynset_OutgoingEdges(t *testing.T) {
	s := testSynset()

	dis := s.OutgoingEdges(GlossDisambiguated)
	require.Len(t, dis, 2)
	assert.Equal(t, "bn:1", dis[0].Target)
	assert.Equal(t, "bn:2", dis[1].Target)

	mono := s.OutgoingEdges(GlossMonosemous)
	require.Len(t, mono, 1)
	assert.Equal(t, "bn:3", mono[0].Target)
}

func TestTaxonomyOf(t *testing.T) {
	tests := map[string]Source{
		"wn:00001740n":   SourceWordNet,
		"WN:00001740n":   SourceWordNet,
		"omwn:123":       SourceOMWN,
		"no-prefix-here": SourceWordNet,
	}
	for id, want := range tests {
		assert.Equal(t, want, TaxonomyOf(id), id)
	}
}

func TestWordNetID(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		pos     string
		want    string
		wantErr bool
	}{
		{name: "noun", offset: 1740, pos: "n", want: "wn:00001740n"},
		{name: "verb upper case", offset: 2084071, pos: "V", want: "wn:02084071v"},
		{name: "satellite folds to adjective", offset: 1123148, pos: "s", want: "wn:01123148a"},
		{name: "adverb", offset: 19, pos: "r", want: "wn:00000019r"},
		{name: "bad pos", offset: 1, pos: "x", wantErr: true},
		{name: "negative offset", offset: -1, pos: "n", wantErr: true},
		{name: "offset too wide", offset: 100000000, pos: "n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WordNetID(tt.offset, tt.pos)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynsetJSON(t *testing.T) {
	s := testSynset()
	data, err := s.ToJSON()
	require.NoError(t, err)

	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, s, back)

	_, err = FromJSON([]byte(`{"senses":[]}`))
	assert.Error(t, err, "record without id must be rejected")

	_, err = FromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	prev := testSynset()

	bare := &Synset{
		ID:          prev.ID,
		ResourceIDs: []string{"wn:99999999n", "wn:07739125n"},
		Senses:      []Sense{{Lemma: "apple", Language: English, Source: SourceWordNet}},
	}
	merged := Merge(prev, bare)
	assert.Equal(t, prev.Edges, merged.Edges)
	assert.Equal(t, []string{"wn:07739125n", "wn:99999999n"}, merged.ResourceIDs)
	assert.Equal(t, bare.Senses, merged.Senses)
	assert.Empty(t, merged.Glosses)
	assert.Len(t, bare.Edges, 0, "inputs are not modified")

	withEdges := &Synset{ID: prev.ID, Edges: []Edge{{Pointer: GlossMonosemous, Target: "bn:7"}}}
	assert.Equal(t, withEdges.Edges, Merge(prev, withEdges).Edges)
	assert.Equal(t, prev.ResourceIDs, Merge(prev, withEdges).ResourceIDs)

	assert.Same(t, bare, Merge(nil, bare))
}
