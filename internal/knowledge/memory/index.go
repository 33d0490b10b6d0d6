// Package memory keeps a synset dump in memory and serves lookups from it.
package memory

import (
	"context"
	"sync"

	"github.com/Pew-X/sensegate/internal/core"
)

// Index holds synsets by BabelNet id, with a secondary index from resource
// ids (wn:...) to BabelNet ids.
type Index struct {
	synsets map[string]*core.Synset
	// resourceIndex maps resource ids to synset ids
	resourceIndex map[string]string
	mutex         sync.RWMutex
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		synsets:       make(map[string]*core.Synset),
		resourceIndex: make(map[string]string),
	}
}

// Add stores a synset, merging it over any earlier record with the same id
// (see core.Merge). It reports whether the id was new.
func (i *Index) Add(synset *core.Synset) bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	prev, exists := i.synsets[synset.ID]
	if exists {
		synset = core.Merge(prev, synset)
	}
	i.synsets[synset.ID] = synset
	for _, rid := range synset.ResourceIDs {
		i.resourceIndex[rid] = synset.ID
	}
	return !exists
}

// Synset resolves a BabelNet id or a resource id.
func (i *Index) Synset(ctx context.Context, id string) (*core.Synset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mutex.RLock()
	defer i.mutex.RUnlock()

	if synset, ok := i.synsets[id]; ok {
		return synset, nil
	}
	if bnID, ok := i.resourceIndex[id]; ok {
		return i.synsets[bnID], nil
	}
	return nil, nil
}

// OutgoingEdges returns the stored edges of the synset for one relation type.
func (i *Index) OutgoingEdges(ctx context.Context, synset *core.Synset, pointer core.Pointer) ([]core.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return synset.OutgoingEdges(pointer), nil
}

// Stats describes the index contents.
type Stats struct {
	Synsets     int `json:"synsets"`
	ResourceIDs int `json:"resource_ids"`
}

// GetStats returns the number of synsets and resource ids held.
func (i *Index) GetStats() Stats {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	return Stats{
		Synsets:     len(i.synsets),
		ResourceIDs: len(i.resourceIndex),
	}
}
