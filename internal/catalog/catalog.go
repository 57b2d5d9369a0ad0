// Package catalog persists product records and their embeddings in SQLite.
// It is the durable side of the similarity index: the index is rebuilt from
// catalog snapshots at startup and kept in step on every insert.
package catalog

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"product-vision/internal/index"
	"product-vision/pkg/colorutil"
)

// Processing status lifecycle for a product record.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Product is one catalog record. Embedding is empty until processing
// succeeds; Color is Unknown until categorization runs.
type Product struct {
	ID        int64
	Name      string
	Brand     string
	Weight    string
	Color     colorutil.Category
	Embedding []float32
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		brand TEXT,
		weight TEXT,
		color TEXT NOT NULL DEFAULT 'unknown',
		embedding BLOB,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_color ON products(color);
	CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds a new product in the pending state and returns its ID.
func (s *Store) Insert(name, brand, weight string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO products (name, brand, weight, color, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, brand, weight, string(colorutil.Unknown), StatusPending, now, now)
	if err != nil {
		return 0, fmt.Errorf("catalog: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: insert id: %w", err)
	}
	return id, nil
}

// MarkProcessed stores the embedding and color for a product and moves it
// to the processed state.
func (s *Store) MarkProcessed(id int64, embedding []float32, color colorutil.Category) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE products SET embedding = ?, color = ?, status = ?, updated_at = ? WHERE id = ?`,
		encodeEmbedding(embedding), string(color), StatusProcessed, now, id)
	if err != nil {
		return fmt.Errorf("catalog: mark processed %d: %w", id, err)
	}
	return nil
}

// MarkFailed moves a product to the failed state.
func (s *Store) MarkFailed(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE products SET status = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, now, id)
	if err != nil {
		return fmt.Errorf("catalog: mark failed %d: %w", id, err)
	}
	return nil
}

// Get fetches one product by ID.
func (s *Store) Get(id int64) (*Product, error) {
	row := s.db.QueryRow(
		`SELECT id, name, brand, weight, color, embedding, status, created_at, updated_at
		 FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog: product %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return p, nil
}

// Snapshots returns the indexable view of every processed product,
// satisfying the index rebuild source.
func (s *Store) Snapshots() ([]index.Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, embedding, color FROM products WHERE status = ? AND embedding IS NOT NULL`,
		StatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("catalog: snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []index.Snapshot
	for rows.Next() {
		var (
			id    int64
			blob  []byte
			color string
		)
		if err := rows.Scan(&id, &blob, &color); err != nil {
			return nil, fmt.Errorf("catalog: snapshot scan: %w", err)
		}
		snaps = append(snaps, index.Snapshot{
			ProductID: id,
			Embedding: decodeEmbedding(blob),
			Color:     colorutil.Category(color),
		})
	}
	return snaps, rows.Err()
}

// Count returns the number of products per processing status.
func (s *Store) Count() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM products GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("catalog: count: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("catalog: count scan: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p                    Product
		color                string
		blob                 []byte
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Weight, &color, &blob, &p.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Color = colorutil.Category(color)
	p.Embedding = decodeEmbedding(blob)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// Embeddings are stored as little-endian float32 blobs.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
