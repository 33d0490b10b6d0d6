package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Pew-X/sensegate/internal/core"
)

// maxRecordSize bounds one JSONL line. Synsets with many senses get large.
const maxRecordSize = 16 * 1024 * 1024

// Dump is an append-only JSONL file of synset records.
// Harvest writes it, import and the dump backend read it.
type Dump struct {
	filePath string
	file     *os.File
	mutex    sync.Mutex
}

// OpenDump opens (or creates) a dump file for appending.
func OpenDump(filePath string) (*Dump, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}

	return &Dump{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append writes one synset record.
func (d *Dump) Append(synset *core.Synset) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.file == nil {
		return fmt.Errorf("dump %s is closed", d.filePath)
	}

	data, err := synset.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize synset %s: %w", synset.ID, err)
	}

	if _, err := fmt.Fprintf(d.file, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write to dump: %w", err)
	}
	return d.file.Sync()
}

// Close closes the dump file. It is safe to call more than once.
func (d *Dump) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// Path returns the file the dump writes to.
func (d *Dump) Path() string {
	return d.filePath
}

// LoadDump reads every synset record from a dump file. A missing file is an
// empty dump. Lines that do not parse are logged and skipped.
func LoadDump(filePath string) ([]*core.Synset, error) {
	var synsets []*core.Synset
	err := EachRecord(filePath, func(synset *core.Synset) error {
		synsets = append(synsets, synset)
		return nil
	})
	return synsets, err
}

// EachRecord streams the records of a dump file to fn, stopping at the first
// error fn returns.
func EachRecord(filePath string, fn func(*core.Synset) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open dump for reading: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		synset, err := core.FromJSON(line)
		if err != nil {
			log.WithFields(log.Fields{
				"file": filePath,
				"line": lineNum,
			}).WithError(err).Warn("Skipping unreadable dump record")
			continue
		}

		if err := fn(synset); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading dump file: %w", err)
	}
	return nil
}
