// Package snapshot serves synsets from a local SQLite copy of the knowledge base.
package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/store"
)

//go:embed schema.sql
var schema string

// ErrNotOpen is returned by a Store that was closed or never opened.
var ErrNotOpen = errors.New("snapshot store is not open")

// Store is a knowledge.Base backed by SQLite.
type Store struct {
	mutex sync.RWMutex
	sqlDB *sql.DB
}

// Open opens a snapshot database and creates its tables if missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle. Calls already holding the handle fail with
// sql.ErrConnDone, later calls with ErrNotOpen.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

func (s *Store) db() (*sql.DB, error) {
	if s == nil {
		return nil, ErrNotOpen
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.sqlDB == nil {
		return nil, ErrNotOpen
	}
	return s.sqlDB, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Synset resolves a BabelNet id or a resource id. Edges are not loaded here,
// see OutgoingEdges.
func (s *Store) Synset(ctx context.Context, id string) (*core.Synset, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}

	var synsetID string
	err = db.QueryRowContext(ctx,
		`SELECT id FROM synsets WHERE id = ?
		 UNION ALL
		 SELECT synset_id FROM resource_ids WHERE resource_id = ?
		 LIMIT 1`, id, id).Scan(&synsetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve synset %s: %w", id, err)
	}

	synset := &core.Synset{ID: synsetID}
	if err := loadResourceIDs(ctx, db, synset); err != nil {
		return nil, err
	}
	if err := loadSenses(ctx, db, synset); err != nil {
		return nil, err
	}
	if err := loadGlosses(ctx, db, synset); err != nil {
		return nil, err
	}
	if err := loadExamples(ctx, db, synset); err != nil {
		return nil, err
	}
	return synset, nil
}

// OutgoingEdges returns the synset's edges of one relation type, in stored order.
func (s *Store) OutgoingEdges(ctx context.Context, synset *core.Synset, pointer core.Pointer) ([]core.Edge, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT target, language FROM edges
		 WHERE synset_id = ? AND pointer = ?
		 ORDER BY position`, synset.ID, string(pointer))
	if err != nil {
		return nil, fmt.Errorf("query edges of %s: %w", synset.ID, err)
	}
	defer rows.Close()

	var edges []core.Edge
	for rows.Next() {
		var target, language string
		if err := rows.Scan(&target, &language); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, core.Edge{Pointer: pointer, Target: target, Language: core.Language(language)})
	}
	return edges, rows.Err()
}

func loadResourceIDs(ctx context.Context, db *sql.DB, synset *core.Synset) error {
	rows, err := db.QueryContext(ctx,
		`SELECT resource_id FROM resource_ids WHERE synset_id = ? ORDER BY resource_id`, synset.ID)
	if err != nil {
		return fmt.Errorf("query resource ids of %s: %w", synset.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return fmt.Errorf("scan resource id: %w", err)
		}
		synset.ResourceIDs = append(synset.ResourceIDs, rid)
	}
	return rows.Err()
}

func loadSenses(ctx context.Context, db *sql.DB, synset *core.Synset) error {
	rows, err := db.QueryContext(ctx,
		`SELECT lemma, language, source, sense_key FROM senses
		 WHERE synset_id = ? ORDER BY position`, synset.ID)
	if err != nil {
		return fmt.Errorf("query senses of %s: %w", synset.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sense core.Sense
		var language, source string
		if err := rows.Scan(&sense.Lemma, &language, &source, &sense.SenseKey); err != nil {
			return fmt.Errorf("scan sense: %w", err)
		}
		sense.Language = core.Language(language)
		sense.Source = core.Source(source)
		synset.Senses = append(synset.Senses, sense)
	}
	return rows.Err()
}

func loadGlosses(ctx context.Context, db *sql.DB, synset *core.Synset) error {
	rows, err := db.QueryContext(ctx,
		`SELECT language, source, text FROM glosses
		 WHERE synset_id = ? ORDER BY position`, synset.ID)
	if err != nil {
		return fmt.Errorf("query glosses of %s: %w", synset.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var language, source, text string
		if err := rows.Scan(&language, &source, &text); err != nil {
			return fmt.Errorf("scan gloss: %w", err)
		}
		synset.Glosses = append(synset.Glosses, core.Gloss{
			Text:     text,
			Language: core.Language(language),
			Source:   core.Source(source),
		})
	}
	return rows.Err()
}

func loadExamples(ctx context.Context, db *sql.DB, synset *core.Synset) error {
	rows, err := db.QueryContext(ctx,
		`SELECT language, source, text FROM examples
		 WHERE synset_id = ? ORDER BY position`, synset.ID)
	if err != nil {
		return fmt.Errorf("query examples of %s: %w", synset.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var language, source, text string
		if err := rows.Scan(&language, &source, &text); err != nil {
			return fmt.Errorf("scan example: %w", err)
		}
		synset.Examples = append(synset.Examples, core.Example{
			Text:     text,
			Language: core.Language(language),
			Source:   core.Source(source),
		})
	}
	return rows.Err()
}

// Put stores one synset over any earlier copy with the same id. Edges and
// resource ids the new record lacks are kept.
func (s *Store) Put(ctx context.Context, synset *core.Synset) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := putSynset(ctx, tx, synset); err != nil {
		return err
	}
	return tx.Commit()
}

// ImportDump loads every record of a JSONL dump in one transaction and
// returns the number of records stored.
func (s *Store) ImportDump(ctx context.Context, path string) (int, error) {
	db, err := s.db()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	count := 0
	err = store.EachRecord(path, func(synset *core.Synset) error {
		if err := putSynset(ctx, tx, synset); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return count, nil
}

// Count returns the number of synsets stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.db()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synsets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count synsets: %w", err)
	}
	return n, nil
}

func putSynset(ctx context.Context, tx *sql.Tx, synset *core.Synset) error {
	if synset.ID == "" {
		return fmt.Errorf("synset id is required")
	}
	// Same rule as core.Merge: resource ids accumulate, edges are only
	// replaced by a record that has some.
	tables := []string{"senses", "glosses", "examples"}
	if len(synset.Edges) > 0 {
		tables = append(tables, "edges")
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE synset_id = ?`, synset.ID); err != nil {
			return fmt.Errorf("clear %s of %s: %w", table, synset.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO synsets (id) VALUES (?)`, synset.ID); err != nil {
		return fmt.Errorf("insert synset %s: %w", synset.ID, err)
	}

	for _, rid := range synset.ResourceIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO resource_ids (resource_id, synset_id) VALUES (?, ?)`,
			rid, synset.ID); err != nil {
			return fmt.Errorf("insert resource id %s: %w", rid, err)
		}
	}
	for i, sense := range synset.Senses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO senses (synset_id, position, lemma, language, source, sense_key) VALUES (?, ?, ?, ?, ?, ?)`,
			synset.ID, i, sense.Lemma, string(sense.Language), string(sense.Source), sense.SenseKey); err != nil {
			return fmt.Errorf("insert sense of %s: %w", synset.ID, err)
		}
	}
	for i, gloss := range synset.Glosses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO glosses (synset_id, position, language, source, text) VALUES (?, ?, ?, ?, ?)`,
			synset.ID, i, string(gloss.Language), string(gloss.Source), gloss.Text); err != nil {
			return fmt.Errorf("insert gloss of %s: %w", synset.ID, err)
		}
	}
	for i, example := range synset.Examples {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO examples (synset_id, position, language, source, text) VALUES (?, ?, ?, ?, ?)`,
			synset.ID, i, string(example.Language), string(example.Source), example.Text); err != nil {
			return fmt.Errorf("insert example of %s: %w", synset.ID, err)
		}
	}
	for i, edge := range synset.Edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (synset_id, position, pointer, target, language) VALUES (?, ?, ?, ?, ?)`,
			synset.ID, i, string(edge.Pointer), edge.Target, string(edge.Language)); err != nil {
			return fmt.Errorf("insert edge of %s: %w", synset.ID, err)
		}
	}
	return nil
}
