// Package ioobsdb reads SQLite exports of observation databases.
//
// An export keeps observations in the table
//
//	observations(id INTEGER PRIMARY KEY, taxon_name TEXT,
//	  vernacular_name TEXT, kingdom TEXT, observed_at TEXT,
//	  latitude REAL, longitude REAL, accuracy INTEGER, site TEXT,
//	  municipality TEXT, count TEXT, observer TEXT, project TEXT,
//	  modified TEXT, is_deleted INTEGER)
//
// Timestamps are RFC 3339 strings in UTC, so they compare as text.
package ioobsdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/provider/obsdb"
	_ "modernc.org/sqlite"
)

// Reader pages through observations of an export.
type Reader struct {
	path string
	db   *sql.DB
}

// Open opens an export file read-only.
func Open(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, OpenError(path, err)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, OpenError(path, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}
	return &Reader{path: path, db: db}, nil
}

const pageQuery = `
SELECT id, taxon_name, vernacular_name, kingdom, observed_at,
  latitude, longitude, accuracy, site, municipality, count,
  observer, project, modified, is_deleted
FROM observations
WHERE id > ? AND (? = '' OR modified > ?)
ORDER BY id
LIMIT ?`

// Page returns up to limit rows with IDs greater than lastID. With
// non-zero since only rows modified after it are returned. An empty page
// means there are no more rows.
func (r *Reader) Page(
	ctx context.Context,
	lastID int64,
	since time.Time,
	limit int,
) ([]obsdb.Row, error) {
	var sinceStr string
	if !since.IsZero() {
		sinceStr = since.UTC().Format(time.RFC3339)
	}

	rows, err := r.db.QueryContext(ctx, pageQuery, lastID, sinceStr, sinceStr, limit)
	if err != nil {
		return nil, ReadError(r.path, err)
	}
	defer rows.Close()

	var res []obsdb.Row
	for rows.Next() {
		var row obsdb.Row
		var name, vern, kingdom, observed, site, muni, count sql.NullString
		var observer, project, modified sql.NullString
		var lat, lon sql.NullFloat64
		var accuracy sql.NullInt64
		var deleted sql.NullBool

		err = rows.Scan(
			&row.ID, &name, &vern, &kingdom, &observed,
			&lat, &lon, &accuracy, &site, &muni, &count,
			&observer, &project, &modified, &deleted,
		)
		if err != nil {
			return nil, ReadError(r.path, err)
		}

		row.TaxonName = name.String
		row.VernacularName = vern.String
		row.Kingdom = kingdom.String
		row.Site = site.String
		row.Municipality = muni.String
		row.Count = count.String
		row.Observer = observer.String
		row.Project = project.String
		row.Accuracy = int(accuracy.Int64)
		row.IsDeleted = deleted.Bool
		if lat.Valid {
			row.Latitude = &lat.Float64
		}
		if lon.Valid {
			row.Longitude = &lon.Float64
		}
		if t, ok := harvest.ParseTime(observed.String); ok {
			row.ObservedAt = &t
		}
		if t, ok := harvest.ParseTime(modified.String); ok {
			row.Modified = t
		}
		res = append(res, row)
	}
	if err = rows.Err(); err != nil {
		return nil, ReadError(r.path, err)
	}
	return res, nil
}

// Close closes the export.
func (r *Reader) Close() error {
	return r.db.Close()
}
