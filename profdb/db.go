// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profdb archives parsed profiles in a SQL database, so that
// the profiles of many runs can be compared later.
package profdb

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/access-nri/profiling/proffmt"
)

// ErrNotFound is returned when a requested run or profile does not
// exist.
var ErrNotFound = errors.New("profdb: not found")

// DB is a high-level interface to a profile archive. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun     *sql.Stmt
	insertProfile *sql.Stmt
	insertMetric  *sql.Stmt
	insertRegion  *sql.Stmt
	insertValue   *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
//
// Regions holds both the flat rows of a profile (Parent is NULL) and
// the nodes of its call tree (Parent is -1 for outermost nodes).
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Label VARCHAR(255),
	Created BIGINT
);
CREATE TABLE IF NOT EXISTS Profiles (
	RunID BIGINT UNSIGNED,
	ProfileID BIGINT UNSIGNED,
	Label VARCHAR(255),
	PRIMARY KEY (RunID, ProfileID),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS ProfileMetrics (
	RunID BIGINT UNSIGNED,
	ProfileID BIGINT UNSIGNED,
	Position INT,
	Name VARCHAR(255),
	Unit VARCHAR(64),
	Description VARCHAR(1024),
	PRIMARY KEY (RunID, ProfileID, Position),
	FOREIGN KEY (RunID, ProfileID) REFERENCES Profiles(RunID, ProfileID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Regions (
	RunID BIGINT UNSIGNED,
	ProfileID BIGINT UNSIGNED,
	RegionID BIGINT UNSIGNED,
	Parent BIGINT,
	Name VARCHAR(1024),
	PRIMARY KEY (RunID, ProfileID, RegionID),
	FOREIGN KEY (RunID, ProfileID) REFERENCES Profiles(RunID, ProfileID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RegionValues (
	RunID BIGINT UNSIGNED,
	ProfileID BIGINT UNSIGNED,
	RegionID BIGINT UNSIGNED,
	Position INT,
	Kind INT,
	IntVal BIGINT,
	FloatVal DOUBLE,
	StrVal VARCHAR(1024),
	PRIMARY KEY (RunID, ProfileID, RegionID, Position),
	FOREIGN KEY (RunID, ProfileID, RegionID) REFERENCES Regions(RunID, ProfileID, RegionID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS ProfilesLabel ON Profiles(RunID, Label);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	for _, s := range []struct {
		stmt  **sql.Stmt
		query string
	}{
		{&db.insertRun, "INSERT INTO Runs(Label, Created) VALUES (?, ?)"},
		{&db.insertProfile, "INSERT INTO Profiles(RunID, ProfileID, Label) VALUES (?, ?, ?)"},
		{&db.insertMetric, "INSERT INTO ProfileMetrics(RunID, ProfileID, Position, Name, Unit, Description) VALUES (?, ?, ?, ?, ?, ?)"},
		{&db.insertRegion, "INSERT INTO Regions(RunID, ProfileID, RegionID, Parent, Name) VALUES (?, ?, ?, ?, ?)"},
		{&db.insertValue, "INSERT INTO RegionValues(RunID, ProfileID, RegionID, Position, Kind, IntVal, FloatVal, StrVal) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"},
	} {
		var err error
		*s.stmt, err = db.sql.Prepare(s.query)
		if err != nil {
			return err
		}
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// A Run is a set of profiles archived together, typically the logs of
// one model run. Profiles are written in a single transaction that
// is finished by Commit or Abort.
type Run struct {
	// ID is the numeric key of this run.
	ID int64
	// Label describes the run.
	Label string

	// nextProfile is the index of the next profile to insert.
	nextProfile int64
	// db is the underlying database that this run is going to.
	db *DB
	// tx is the transaction used by the run.
	tx *sql.Tx
}

// NewRun returns a run for storing new profiles.
func (db *DB) NewRun(ctx context.Context, label string) (*Run, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.Stmt(db.insertRun).ExecContext(ctx, label, now().Unix())
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Run{ID: id, Label: label, db: db, tx: tx}, nil
}

// Value encoding in RegionValues.Kind.
const (
	kindInt = iota
	kindFloat
	kindString
)

func encodeValue(v proffmt.Value) (kind int, i int64, f float64, s string) {
	switch v.Kind() {
	case proffmt.Int:
		i, _ := v.Int()
		return kindInt, i, 0, ""
	case proffmt.Float:
		f, _ := v.Float64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			// Not every engine stores non-finite doubles.
			return kindFloat, 0, 0, v.String()
		}
		return kindFloat, 0, f, ""
	}
	return kindString, 0, 0, v.String()
}

func decodeValue(kind int, i int64, f float64, s string) (proffmt.Value, error) {
	switch kind {
	case kindInt:
		return proffmt.IntValue(i), nil
	case kindFloat:
		if s != "" {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return proffmt.Value{}, err
			}
			return proffmt.FloatValue(f), nil
		}
		return proffmt.FloatValue(f), nil
	case kindString:
		return proffmt.StringValue(s), nil
	}
	return proffmt.Value{}, fmt.Errorf("unknown value kind %d", kind)
}

// InsertProfile inserts a single profile in an existing run, under
// label.
func (r *Run) InsertProfile(label string, p *proffmt.Profile) error {
	if err := p.Check(); err != nil {
		return err
	}
	tx := r.tx
	id := r.nextProfile
	if _, err := tx.Stmt(r.db.insertProfile).Exec(r.ID, id, label); err != nil {
		return err
	}
	for i, m := range p.Metrics {
		if _, err := tx.Stmt(r.db.insertMetric).Exec(r.ID, id, i, m.Name(), string(m.Unit()), m.Description()); err != nil {
			return err
		}
	}

	insertRegion := tx.Stmt(r.db.insertRegion)
	insertValue := tx.Stmt(r.db.insertValue)
	region := int64(0)
	insert := func(parent sql.NullInt64, name string, value func(i int) (proffmt.Value, bool)) error {
		if _, err := insertRegion.Exec(r.ID, id, region, parent, name); err != nil {
			return err
		}
		for i := range p.Metrics {
			v, ok := value(i)
			if !ok {
				continue
			}
			kind, iv, fv, sv := encodeValue(v)
			if _, err := insertValue.Exec(r.ID, id, region, i, kind, iv, fv, sv); err != nil {
				return err
			}
		}
		region++
		return nil
	}

	for ri, name := range p.Regions {
		err := insert(sql.NullInt64{}, name, func(i int) (proffmt.Value, bool) {
			return p.Values[p.Metrics[i]][ri], true
		})
		if err != nil {
			return err
		}
	}
	if p.Root != nil {
		var parents []int64
		err := p.Root.Walk(func(n *proffmt.Node, depth int) error {
			parents = append(parents[:depth], region)
			parent := int64(-1)
			if depth > 0 {
				parent = parents[depth-1]
			}
			return insert(sql.NullInt64{Int64: parent, Valid: true}, n.Name, func(i int) (proffmt.Value, bool) {
				v, ok := n.Values[p.Metrics[i]]
				return v, ok
			})
		})
		if err != nil {
			return err
		}
	}
	r.nextProfile++
	return nil
}

// Commit finishes processing the run.
func (r *Run) Commit() error {
	return r.tx.Commit()
}

// Abort cleans up resources associated with the run.
// It does not attempt to clean up partial database state.
func (r *Run) Abort() error {
	return r.tx.Rollback()
}

// CountRuns returns the number of runs in the archive.
func (db *DB) CountRuns() (int, error) {
	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Runs").Scan(&count)
	return count, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertRun, db.insertProfile, db.insertMetric, db.insertRegion, db.insertValue} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
