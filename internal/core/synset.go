package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Language is an upper-case language code as used by BabelNet ("EN", "IT", ...).
type Language string

// English is the only language the lookup surface reads by default.
const English Language = "EN"

// Source identifies the lexicon a sense, gloss or example was taken from.
type Source string

const (
	SourceWordNet   Source = "WN"
	SourceWikipedia Source = "WIKI"
	SourceWikidata  Source = "WIKIDATA"
	SourceOMWN      Source = "OMWN"
)

// Pointer is the short name of a BabelNet relation type.
type Pointer string

const (
	// GlossDisambiguated links a synset to the synsets of words disambiguated in its gloss.
	GlossDisambiguated Pointer = "gdis"
	// GlossMonosemous links a synset to monosemous words found in its gloss.
	GlossMonosemous Pointer = "gmono"
)

// Gloss is a short definition attached to a synset.
type Gloss struct {
	Text     string   `json:"gloss"`
	Language Language `json:"language"`
	Source   Source   `json:"source"`
}

// Example is a usage sentence attached to a synset.
type Example struct {
	Text     string   `json:"example"`
	Language Language `json:"language"`
	Source   Source   `json:"source"`
}

// Sense is one lexical realization of a synset in one lexicon.
type Sense struct {
	Lemma    string   `json:"lemma"`
	Language Language `json:"language"`
	Source   Source   `json:"source"`
	SenseKey string   `json:"sense_key"`
}

// Edge is an outgoing relation from a synset.
type Edge struct {
	Pointer  Pointer  `json:"pointer"`
	Target   string   `json:"target"`
	Language Language `json:"language,omitempty"`
}

// Synset is a concept node of the knowledge base.
// Senses are kept in rank order, so the first sense in a language is the
// main sense for that language.
type Synset struct {
	ID          string    `json:"id"`
	ResourceIDs []string  `json:"resource_ids,omitempty"` // e.g. wn:00001740n
	Senses      []Sense   `json:"senses"`
	Glosses     []Gloss   `json:"glosses"`
	Examples    []Example `json:"examples"`
	Edges       []Edge    `json:"edges,omitempty"`
}

// GlossesIn returns the glosses in the given language, in stored order.
func (s *Synset) GlossesIn(lang Language) []string {
	var out []string
	for _, g := range s.Glosses {
		if g.Language == lang {
			out = append(out, g.Text)
		}
	}
	return out
}

// ExamplesIn returns the examples in the given language, in stored order.
func (s *Synset) ExamplesIn(lang Language) []string {
	var out []string
	for _, e := range s.Examples {
		if e.Language == lang {
			out = append(out, e.Text)
		}
	}
	return out
}

// MainSense returns the highest ranked sense in lang.
func (s *Synset) MainSense(lang Language) (Sense, bool) {
	for _, sense := range s.Senses {
		if sense.Language == lang {
			return sense, true
		}
	}
	return Sense{}, false
}

// OutgoingEdges returns the edges of the given relation type, in stored order.
func (s *Synset) OutgoingEdges(pointer Pointer) []Edge {
	var out []Edge
	for _, e := range s.Edges {
		if e.Pointer == pointer {
			out = append(out, e)
		}
	}
	return out
}

// TaxonomyOf reports which lexicon an external id belongs to, judging by its prefix.
// Ids without a known prefix are treated as WordNet ids.
func TaxonomyOf(id string) Source {
	prefix, _, found := strings.Cut(id, ":")
	if !found {
		return SourceWordNet
	}
	switch strings.ToLower(prefix) {
	case "wn", "wn30":
		return SourceWordNet
	case "omwn":
		return SourceOMWN
	case "wiki":
		return SourceWikipedia
	default:
		return SourceWordNet
	}
}

// WordNetID builds the BabelNet form of a WordNet 3.0 synset id.
// Satellite adjectives ("s") share the adjective offset space and are written as "a".
func WordNetID(offset int, pos string) (string, error) {
	if offset < 0 || offset > 99999999 {
		return "", fmt.Errorf("offset %d out of range", offset)
	}
	p := strings.ToLower(strings.TrimSpace(pos))
	switch p {
	case "n", "v", "a", "r":
	case "s":
		p = "a"
	default:
		return "", fmt.Errorf("unknown part of speech %q", pos)
	}
	return fmt.Sprintf("wn:%08d%s", offset, p), nil
}

// Merge folds a newer record for the same synset over an older one. Senses,
// glosses and examples come from next. Edges are taken from prev when next
// carries none, and resource ids are the union of both. A record fetched only
// as an edge target therefore never erases what a fuller record knew.
func Merge(prev, next *Synset) *Synset {
	if prev == nil {
		return next
	}
	merged := *next
	if len(merged.Edges) == 0 {
		merged.Edges = prev.Edges
	}
	merged.ResourceIDs = unionStrings(prev.ResourceIDs, next.ResourceIDs)
	return &merged
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	out := append([]string(nil), a...)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// ToJSON serializes the synset as one dump record.
func (s *Synset) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// FromJSON deserializes a synset dump record.
func FromJSON(data []byte) (*Synset, error) {
	var synset Synset
	if err := json.Unmarshal(data, &synset); err != nil {
		return nil, err
	}
	if synset.ID == "" {
		return nil, fmt.Errorf("synset record has no id")
	}
	return &synset, nil
}
