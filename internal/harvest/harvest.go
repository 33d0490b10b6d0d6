// Package harvest copies synsets and their gloss neighbourhood from one
// knowledge base into a dump, so they can later be served offline.
package harvest

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/knowledge"
)

// Sink receives harvested synsets. *store.Dump implements it.
type Sink interface {
	Append(synset *core.Synset) error
}

// Pointers are the relations followed from each seed synset.
var Pointers = []core.Pointer{core.GlossDisambiguated, core.GlossMonosemous}

// Stats summarises one harvest run.
type Stats struct {
	Seeds   int `json:"seeds"`
	Missing int `json:"missing"`
	Targets int `json:"targets"`
	Written int `json:"written"`
}

// Harvester fetches seeds with their gloss edges, then each edge target.
type Harvester struct {
	source knowledge.Base
	sink   Sink
	seen   map[string]bool
}

// New creates a harvester reading from source and writing to sink.
func New(source knowledge.Base, sink Sink) *Harvester {
	return &Harvester{source: source, sink: sink, seen: make(map[string]bool)}
}

// Run harvests every id in ids. Ids may be BabelNet or resource ids. Seeds are
// written with their gdis and gmono edges attached; edge targets are written
// once each, without edges of their own.
func (h *Harvester) Run(ctx context.Context, ids []string) (Stats, error) {
	var stats Stats
	var targets []string

	for _, id := range ids {
		synset, err := h.source.Synset(ctx, id)
		if err != nil {
			return stats, fmt.Errorf("fetch %s: %w", id, err)
		}
		if synset == nil {
			stats.Missing++
			log.WithField("id", id).Warn("Seed id not found, skipping")
			continue
		}
		stats.Seeds++

		seed := *synset
		seed.Edges = nil
		for _, pointer := range Pointers {
			edges, err := h.source.OutgoingEdges(ctx, synset, pointer)
			if err != nil {
				return stats, fmt.Errorf("fetch %s edges of %s: %w", pointer, synset.ID, err)
			}
			seed.Edges = append(seed.Edges, edges...)
			for _, edge := range edges {
				targets = append(targets, edge.Target)
			}
		}

		if err := h.write(&seed); err != nil {
			return stats, err
		}
		stats.Written++
	}

	for _, id := range targets {
		if h.seen[id] {
			continue
		}
		h.seen[id] = true

		synset, err := h.source.Synset(ctx, id)
		if err != nil {
			return stats, fmt.Errorf("fetch edge target %s: %w", id, err)
		}
		if synset == nil {
			stats.Missing++
			continue
		}
		stats.Targets++
		if err := h.write(synset); err != nil {
			return stats, err
		}
		stats.Written++
	}

	log.WithFields(log.Fields{
		"seeds":   stats.Seeds,
		"targets": stats.Targets,
		"missing": stats.Missing,
	}).Info("Harvest finished")
	return stats, nil
}

func (h *Harvester) write(synset *core.Synset) error {
	h.seen[synset.ID] = true
	if err := h.sink.Append(synset); err != nil {
		return fmt.Errorf("write %s: %w", synset.ID, err)
	}
	return nil
}
