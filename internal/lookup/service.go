// Package lookup answers gloss, example and related-sense queries for a
// synset id against the shared knowledge base handle.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/knowledge"
)

// relatedPointers are walked in this order; gdis results always precede gmono.
var relatedPointers = []core.Pointer{core.GlossDisambiguated, core.GlossMonosemous}

// Service is stateless apart from the handle. Every call queries the backend.
type Service struct {
	handle   *knowledge.Handle
	language core.Language
}

// Option configures a Service.
type Option func(*Service)

// WithLanguage selects the language glosses, examples and main senses are read in.
func WithLanguage(lang core.Language) Option {
	return func(s *Service) {
		if lang != "" {
			s.language = lang
		}
	}
}

// NewService creates a lookup service over the given handle.
func NewService(handle *knowledge.Handle, opts ...Option) *Service {
	s := &Service{handle: handle, language: core.English}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Description is the full result for one id. Found is false when the id did
// not resolve; the three single-field lookups cannot tell that apart from a
// synset with no data.
type Description struct {
	ID      string   `json:"id"`
	Found   bool     `json:"found"`
	Gloss   string   `json:"gloss"`
	Example string   `json:"example"`
	Related []string `json:"related"`
}

// Gloss returns the synset's glosses joined by single spaces, or "" if the id
// does not resolve.
func (s *Service) Gloss(ctx context.Context, id string) (string, error) {
	synset, err := s.resolve(ctx, id)
	if err != nil || synset == nil {
		return "", err
	}
	return joinText(synset.GlossesIn(s.language)), nil
}

// Example returns the synset's usage examples joined by single spaces, or ""
// if the id does not resolve.
func (s *Service) Example(ctx context.Context, id string) (string, error) {
	synset, err := s.resolve(ctx, id)
	if err != nil || synset == nil {
		return "", err
	}
	return joinText(synset.ExamplesIn(s.language)), nil
}

// Related returns the sense keys of the main senses reached through the
// synset's gloss-disambiguated edges and then its gloss-monosemous edges.
// Targets without a main sense, or whose main sense comes from a different
// lexicon than id, are skipped. Duplicates are kept.
func (s *Service) Related(ctx context.Context, id string) ([]string, error) {
	base, err := s.handle.Get(ctx)
	if err != nil {
		return []string{}, err
	}
	synset, err := base.Synset(ctx, id)
	if err != nil {
		return []string{}, fmt.Errorf("resolve %s: %w", id, err)
	}
	if synset == nil {
		return []string{}, nil
	}
	return s.related(ctx, base, id, synset)
}

// Describe resolves id once and returns every field, with an explicit Found flag.
func (s *Service) Describe(ctx context.Context, id string) (Description, error) {
	d := Description{ID: id, Related: []string{}}

	base, err := s.handle.Get(ctx)
	if err != nil {
		return d, err
	}
	synset, err := base.Synset(ctx, id)
	if err != nil {
		return d, fmt.Errorf("resolve %s: %w", id, err)
	}
	if synset == nil {
		return d, nil
	}

	related, err := s.related(ctx, base, id, synset)
	if err != nil {
		return d, err
	}

	d.Found = true
	d.Gloss = joinText(synset.GlossesIn(s.language))
	d.Example = joinText(synset.ExamplesIn(s.language))
	d.Related = related
	return d, nil
}

func (s *Service) resolve(ctx context.Context, id string) (*core.Synset, error) {
	base, err := s.handle.Get(ctx)
	if err != nil {
		return nil, err
	}
	synset, err := base.Synset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	return synset, nil
}

func (s *Service) related(ctx context.Context, base knowledge.Base, id string, synset *core.Synset) ([]string, error) {
	taxonomy := core.TaxonomyOf(id)
	keys := []string{}

	for _, pointer := range relatedPointers {
		edges, err := base.OutgoingEdges(ctx, synset, pointer)
		if err != nil {
			return []string{}, fmt.Errorf("edges %s of %s: %w", pointer, synset.ID, err)
		}

		for _, edge := range edges {
			if err := ctx.Err(); err != nil {
				return []string{}, err
			}
			target, err := base.Synset(ctx, edge.Target)
			if err != nil {
				return []string{}, fmt.Errorf("resolve edge target %s: %w", edge.Target, err)
			}
			if target == nil {
				continue
			}
			sense, ok := target.MainSense(s.language)
			if !ok || sense.Source != taxonomy {
				continue
			}
			keys = append(keys, sense.SenseKey)
		}
	}
	return keys, nil
}

// joinText joins with single spaces and trims the result.
func joinText(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}
