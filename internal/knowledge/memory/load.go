package memory

import (
	log "github.com/sirupsen/logrus"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/store"
)

// Load builds an index from a JSONL dump file. Later records for the same
// synset id replace earlier ones.
func Load(path string) (*Index, error) {
	idx := NewIndex()
	records := 0
	err := store.EachRecord(path, func(synset *core.Synset) error {
		records++
		idx.Add(synset)
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := idx.GetStats()
	log.WithFields(log.Fields{
		"path":     path,
		"records":  records,
		"synsets":  stats.Synsets,
		"resource": stats.ResourceIDs,
	}).Info("Loaded synset dump")
	return idx, nil
}
