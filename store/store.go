/*
 * store.go, part of goITRE.
 *
 * Copyright 2026 The goITRE authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package store keeps the results of finished reweightings in an SQLite database,
//so runs at different temperatures or strides can be compared later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/itre/histo"

	_ "modernc.org/sqlite"
)

//Run is the archived result of one reweighting.
type Run struct {
	ID      string //assigned by Save if empty
	Created time.Time
	Label   string //free text, usually the directives file

	Scheme     string
	Builder    string
	KT         float64
	Stride     int
	Iterations int
	NEvals     int

	InstantaneousBias []float64
	CT                []float64   //the last row of the c(t) table
	FES               *histo.Data //optional reweighted histogram
}

//payload is the part of a Run kept as a JSON blob.
type payload struct {
	InstantaneousBias []float64   `json:"instantaneous_bias"`
	CT                []float64   `json:"ct"`
	FES               *histo.Data `json:"fes,omitempty"`
}

//Summary is what List returns for each run.
type Summary struct {
	ID      string
	Created time.Time
	Label   string
	Scheme  string
	KT      float64
	NEvals  int
}

type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

//Open opens, creating it if needed, the database in path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created INTEGER NOT NULL,
			label TEXT NOT NULL,
			scheme TEXT NOT NULL,
			builder TEXT NOT NULL,
			kt REAL NOT NULL,
			stride INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			n_evals INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`)
	return err
}

//Save archives r and returns its ID. If r.ID is empty a new one is generated,
//otherwise a run with the same ID is replaced. A zero Created is set to the current time.
func (s *Store) Save(ctx context.Context, r Run) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}
	if len(r.CT) != r.NEvals || len(r.InstantaneousBias) != r.NEvals {
		return "", fmt.Errorf("store: run with %d evaluations has %d c(t) and %d bias values", r.NEvals, len(r.CT), len(r.InstantaneousBias))
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	blob, err := json.Marshal(payload{r.InstantaneousBias, r.CT, r.FES})
	if err != nil {
		return "", fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, created, label, scheme, builder, kt, stride, iterations, n_evals, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created = excluded.created,
			label = excluded.label,
			scheme = excluded.scheme,
			builder = excluded.builder,
			kt = excluded.kt,
			stride = excluded.stride,
			iterations = excluded.iterations,
			n_evals = excluded.n_evals,
			payload = excluded.payload
	`, r.ID, r.Created.UnixNano(), r.Label, r.Scheme, r.Builder, r.KT, r.Stride, r.Iterations, r.NEvals, blob)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

//Load returns the run with the given ID. The boolean is false if there is no such run.
func (s *Store) Load(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}
	r := Run{ID: id}
	var created int64
	var blob []byte
	err = db.QueryRowContext(ctx, `
		SELECT created, label, scheme, builder, kt, stride, iterations, n_evals, payload
		FROM runs WHERE id = ?`, id).Scan(&created, &r.Label, &r.Scheme, &r.Builder, &r.KT, &r.Stride, &r.Iterations, &r.NEvals, &blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	var p payload
	if err := json.Unmarshal(blob, &p); err != nil {
		return Run{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	r.Created = time.Unix(0, created)
	r.InstantaneousBias = p.InstantaneousBias
	r.CT = p.CT
	r.FES = p.FES
	return r, true, nil
}

//List returns a summary of every run, oldest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, created, label, scheme, kt, n_evals FROM runs ORDER BY created, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []Summary
	for rows.Next() {
		var S Summary
		var created int64
		if err := rows.Scan(&S.ID, &created, &S.Label, &S.Scheme, &S.KT, &S.NEvals); err != nil {
			return nil, err
		}
		S.Created = time.Unix(0, created)
		ret = append(ret, S)
	}
	return ret, rows.Err()
}

//Delete removes a run. It is not an error if the run doesn't exist.
func (s *Store) Delete(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("store: database is closed")
	}
	return s.db, nil
}
