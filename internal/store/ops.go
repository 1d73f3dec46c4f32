package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ops implements the record operations over a *sql.DB or *sql.Tx.
type ops struct {
	q    querier
	emit func(Change)
}

// All returns every record of c in id order. Each document carries its id.
func (o ops) All(ctx context.Context, c Collection) ([]json.RawMessage, error) {
	if err := check(ctx, c); err != nil {
		return nil, err
	}
	rows, err := o.q.QueryContext(ctx, `SELECT id, doc FROM `+c.table()+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	return scanDocs(rows, c)
}

// Get returns one record by id, or ErrNotFound.
func (o ops) Get(ctx context.Context, c Collection, id int64) (json.RawMessage, error) {
	if err := check(ctx, c); err != nil {
		return nil, err
	}
	var doc string
	err := o.q.QueryRowContext(ctx, `SELECT doc FROM `+c.table()+` WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", c, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", c, id, err)
	}
	return withID([]byte(doc), id)
}

// Find returns the records of c whose top-level field equals value.
func (o ops) Find(ctx context.Context, c Collection, field string, value any) ([]json.RawMessage, error) {
	if err := check(ctx, c); err != nil {
		return nil, err
	}
	if !isFieldName(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}
	rows, err := o.q.QueryContext(ctx,
		`SELECT id, doc FROM `+c.table()+` WHERE json_extract(doc, '$.`+field+`') = ? ORDER BY id`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", c, field, err)
	}
	return scanDocs(rows, c)
}

// Count returns the number of records in c.
func (o ops) Count(ctx context.Context, c Collection) (int, error) {
	if err := check(ctx, c); err != nil {
		return 0, err
	}
	var n int
	if err := o.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}

// Insert stores doc under a newly generated id and returns it. Any id in
// doc is ignored.
func (o ops) Insert(ctx context.Context, c Collection, doc any) (int64, error) {
	if err := check(ctx, c); err != nil {
		return 0, err
	}
	body, err := encode(doc)
	if err != nil {
		return 0, err
	}
	res, err := o.q.ExecContext(ctx,
		`INSERT INTO `+c.table()+` (doc, updated_at) VALUES (?, ?)`,
		string(body), nowMillis(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", c, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", c, err)
	}
	o.emit(Change{Collection: c, Op: OpInsert, ID: newID})
	return newID, nil
}

// Update overwrites the record with the given id, or returns ErrNotFound.
func (o ops) Update(ctx context.Context, c Collection, id int64, doc any) error {
	if err := check(ctx, c); err != nil {
		return err
	}
	body, err := encode(doc)
	if err != nil {
		return err
	}
	res, err := o.q.ExecContext(ctx,
		`UPDATE `+c.table()+` SET doc = ?, updated_at = ? WHERE id = ?`,
		string(body), nowMillis(), id,
	)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", c, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %d: %w", c, id, ErrNotFound)
	}
	o.emit(Change{Collection: c, Op: OpUpdate, ID: id})
	return nil
}

// Put upserts doc: a document carrying a positive id is written under that
// id whether or not it exists; one without an id is inserted.
func (o ops) Put(ctx context.Context, c Collection, doc any) (int64, error) {
	if err := check(ctx, c); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encoding record: %w", err)
	}
	docID, err := DocID(raw)
	if err != nil {
		return 0, err
	}
	if docID == 0 {
		return o.Insert(ctx, c, json.RawMessage(raw))
	}
	body, err := encode(json.RawMessage(raw))
	if err != nil {
		return 0, err
	}
	_, err = o.q.ExecContext(ctx,
		`INSERT INTO `+c.table()+` (id, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		docID, string(body), nowMillis(),
	)
	if err != nil {
		return 0, fmt.Errorf("put %s %d: %w", c, docID, err)
	}
	o.emit(Change{Collection: c, Op: OpPut, ID: docID})
	return docID, nil
}

// BulkPut upserts every document in order. Use it inside InTx for
// all-or-nothing semantics.
func (o ops) BulkPut(ctx context.Context, c Collection, docs []json.RawMessage) error {
	for i, doc := range docs {
		if _, err := o.Put(ctx, c, doc); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// Delete removes a record by id, or returns ErrNotFound.
func (o ops) Delete(ctx context.Context, c Collection, id int64) error {
	if err := check(ctx, c); err != nil {
		return err
	}
	res, err := o.q.ExecContext(ctx, `DELETE FROM `+c.table()+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", c, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %d: %w", c, id, ErrNotFound)
	}
	o.emit(Change{Collection: c, Op: OpDelete, ID: id})
	return nil
}

// DocID returns the "id" member of a JSON object, 0 when absent or null.
// Non-integer or non-positive ids are rejected.
func DocID(doc []byte) (int64, error) {
	if !gjson.ValidBytes(doc) {
		return 0, fmt.Errorf("record is not valid JSON")
	}
	parsed := gjson.ParseBytes(doc)
	if !parsed.IsObject() {
		return 0, fmt.Errorf("record is not a JSON object")
	}
	v := parsed.Get("id")
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	if v.Type != gjson.Number || v.Num != float64(v.Int()) || v.Int() <= 0 {
		return 0, fmt.Errorf("record id %s is not a positive integer", v.Raw)
	}
	return v.Int(), nil
}

func check(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.Valid() {
		return fmt.Errorf("unknown collection %q", c)
	}
	return nil
}

// encode marshals doc and strips its id; the row key is authoritative.
func encode(doc any) ([]byte, error) {
	var body []byte
	switch d := doc.(type) {
	case json.RawMessage:
		body = d
	case []byte:
		body = d
	default:
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding record: %w", err)
		}
		body = b
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("record is not a JSON object")
	}
	stripped, err := sjson.DeleteBytes(body, "id")
	if err != nil {
		return nil, fmt.Errorf("stripping record id: %w", err)
	}
	return stripped, nil
}

func withID(doc []byte, id int64) (json.RawMessage, error) {
	out, err := sjson.SetBytes(doc, "id", id)
	if err != nil {
		return nil, fmt.Errorf("stamping record id: %w", err)
	}
	return out, nil
}

func scanDocs(rows *sql.Rows, c Collection) ([]json.RawMessage, error) {
	defer rows.Close()
	var docs []json.RawMessage
	for rows.Next() {
		var (
			id  int64
			doc string
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		stamped, err := withID([]byte(doc), id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, stamped)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c, err)
	}
	return docs, nil
}

func isFieldName(field string) bool {
	if field == "" {
		return false
	}
	for _, r := range field {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
