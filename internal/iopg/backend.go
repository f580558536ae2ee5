// Package iopg keeps verbatim collections in PostgreSQL. Every
// collection is a table with the "verbatim_" prefix that has the id,
// the modification time and the JSONB document of a record.
package iopg

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/gnames/gnsos/pkg/verbatim"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TablePrefix is prepended to collection names.
const TablePrefix = "verbatim_"

// maxIdentifier is the length limit of PostgreSQL identifiers.
const maxIdentifier = 63

// Backend implements verbatim.Backend with a pgx connection pool.
type Backend struct {
	pool *pgxpool.Pool
}

// New creates a Backend that uses pool.
func New(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

// TableName returns the table of a collection.
func TableName(collection string) string {
	return truncate(TablePrefix + strings.ToLower(collection))
}

func (b *Backend) CreateCollection(ctx context.Context, name string) error {
	tbl := TableName(name)
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT COLLATE "C" NOT NULL,
	modified TIMESTAMPTZ,
	doc JSONB NOT NULL,
	CONSTRAINT %s PRIMARY KEY (id)
)`, ident(tbl), ident(pkeyName(tbl)))
	_, err := b.pool.Exec(ctx, q)
	if err != nil {
		return fmt.Errorf("create %s: %w", tbl, classify(err))
	}
	return nil
}

func (b *Backend) DropCollection(ctx context.Context, name string) error {
	tbl := TableName(name)
	_, err := b.pool.Exec(ctx, "DROP TABLE IF EXISTS "+ident(tbl))
	if err != nil {
		return fmt.Errorf("drop %s: %w", tbl, classify(err))
	}
	return nil
}

func (b *Backend) CollectionExists(
	ctx context.Context,
	name string,
) (bool, error) {
	return tableExists(ctx, b.pool, TableName(name))
}

// InsertMany writes docs with one multi-row statement. Existing ids are
// overwritten, so a retried batch does not fail on duplicates.
func (b *Backend) InsertMany(
	ctx context.Context,
	name string,
	docs []verbatim.Document,
) error {
	if len(docs) == 0 {
		return nil
	}
	docs = dedup(docs)
	tbl := TableName(name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (id, modified, doc) VALUES ", ident(tbl))
	args := make([]any, 0, len(docs)*3)
	for i, v := range docs {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 3
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", n+1, n+2, n+3)
		args = append(args, v.ID, modified(v.Modified), json.RawMessage(v.Body))
	}
	sb.WriteString(upsertClause)

	if _, err := b.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert %d into %s: %w", len(docs), tbl, classify(err))
	}
	return nil
}

func (b *Backend) Upsert(
	ctx context.Context,
	name string,
	doc verbatim.Document,
) error {
	return b.InsertMany(ctx, name, []verbatim.Document{doc})
}

func (b *Backend) Delete(ctx context.Context, name, id string) error {
	return b.DeleteMany(ctx, name, []string{id})
}

func (b *Backend) DeleteMany(
	ctx context.Context,
	name string,
	ids []string,
) error {
	tbl := TableName(name)
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", ident(tbl))
	_, err := b.pool.Exec(ctx, q, ids)
	if err != nil && !isUndefinedTable(err) {
		return fmt.Errorf("delete from %s: %w", tbl, classify(err))
	}
	return nil
}

func (b *Backend) Get(
	ctx context.Context,
	name, id string,
) (verbatim.Document, bool, error) {
	tbl := TableName(name)
	q := fmt.Sprintf(
		"SELECT id, modified, doc FROM %s WHERE id = $1", ident(tbl),
	)
	rows, err := b.pool.Query(ctx, q, id)
	if err != nil {
		return verbatim.Document{}, false, readErr(tbl, err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return verbatim.Document{}, false, readErr(tbl, err)
	}
	if len(docs) == 0 {
		return verbatim.Document{}, false, nil
	}
	return docs[0], true, nil
}

// Find returns documents ordered by id. Non-positive limit returns all
// documents after skip.
func (b *Backend) Find(
	ctx context.Context,
	name string,
	skip, limit int,
) ([]verbatim.Document, error) {
	tbl := TableName(name)
	q := fmt.Sprintf(
		"SELECT id, modified, doc FROM %s ORDER BY id OFFSET $1", ident(tbl),
	)
	args := []any{skip}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := b.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, readErr(tbl, err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, readErr(tbl, err)
	}
	return docs, nil
}

func (b *Backend) Count(ctx context.Context, name string) (int64, error) {
	tbl := TableName(name)
	var res int64
	err := b.pool.QueryRow(ctx, "SELECT count(*) FROM "+ident(tbl)).Scan(&res)
	if err != nil {
		return 0, readErr(tbl, err)
	}
	return res, nil
}

// Replace renames src to dst in one transaction. Previous dst is
// dropped.
func (b *Backend) Replace(ctx context.Context, src, dst string) error {
	srcTbl, dstTbl := TableName(src), TableName(dst)
	return b.inTx(ctx, srcTbl, func(tx pgx.Tx) error {
		stmts := []string{
			"DROP TABLE IF EXISTS " + ident(dstTbl),
			fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
				ident(srcTbl), ident(dstTbl)),
			fmt.Sprintf("ALTER TABLE %s RENAME CONSTRAINT %s TO %s",
				ident(dstTbl), ident(pkeyName(srcTbl)), ident(pkeyName(dstTbl))),
		}
		return execAll(ctx, tx, stmts)
	})
}

// Merge upserts documents of src into dst and drops src in one
// transaction.
func (b *Backend) Merge(ctx context.Context, src, dst string) error {
	srcTbl, dstTbl := TableName(src), TableName(dst)
	if err := b.CreateCollection(ctx, dst); err != nil {
		return err
	}
	return b.inTx(ctx, srcTbl, func(tx pgx.Tx) error {
		stmts := []string{
			fmt.Sprintf(
				"INSERT INTO %s (id, modified, doc) SELECT id, modified, doc FROM %s",
				ident(dstTbl), ident(srcTbl),
			) + upsertClause,
			"DROP TABLE " + ident(srcTbl),
		}
		return execAll(ctx, tx, stmts)
	})
}

func (b *Backend) inTx(
	ctx context.Context,
	srcTbl string,
	fn func(pgx.Tx) error,
) error {
	exists, err := tableExists(ctx, b.pool, srcTbl)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("table %s does not exist", srcTbl)
	}
	err = pgx.BeginFunc(ctx, b.pool, fn)
	if err != nil {
		return fmt.Errorf("promote %s: %w", srcTbl, classify(err))
	}
	return nil
}

const upsertClause = ` ON CONFLICT (id) DO UPDATE
SET modified = EXCLUDED.modified, doc = EXCLUDED.doc`

func execAll(ctx context.Context, tx pgx.Tx, stmts []string) error {
	for _, q := range stmts {
		if _, err := tx.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func tableExists(
	ctx context.Context,
	pool *pgxpool.Pool,
	tbl string,
) (bool, error) {
	q := `SELECT EXISTS (
	SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = $1
)`
	var res bool
	if err := pool.QueryRow(ctx, q, tbl).Scan(&res); err != nil {
		return false, fmt.Errorf("check %s: %w", tbl, classify(err))
	}
	return res, nil
}

func scanDocument(row pgx.CollectableRow) (verbatim.Document, error) {
	var res verbatim.Document
	var mod *time.Time
	err := row.Scan(&res.ID, &mod, &res.Body)
	if mod != nil {
		res.Modified = mod.UTC()
	}
	return res, err
}

// readErr treats a missing table as an empty collection.
func readErr(tbl string, err error) error {
	if isUndefinedTable(err) {
		return nil
	}
	return fmt.Errorf("read %s: %w", tbl, classify(err))
}

// dedup keeps the last document of every id, one statement cannot
// update the same row twice.
func dedup(docs []verbatim.Document) []verbatim.Document {
	idx := make(map[string]int, len(docs))
	res := make([]verbatim.Document, 0, len(docs))
	for _, v := range docs {
		if i, ok := idx[v.ID]; ok {
			res[i] = v
			continue
		}
		idx[v.ID] = len(res)
		res = append(res, v)
	}
	return res
}

func modified(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func ident(s string) string {
	return pgx.Identifier{s}.Sanitize()
}

func pkeyName(tbl string) string {
	return truncate(tbl + "_pkey")
}

// truncate shortens long identifiers keeping them distinct with a hash
// of the full name.
func truncate(s string) string {
	if len(s) <= maxIdentifier {
		return s
	}
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%s_%08x", s[:maxIdentifier-9], h.Sum32())
}
