// Package backup exports every collection to one JSON document and imports
// it back, all or nothing.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tidwall/gjson"

	"github.com/cleared-dev/microerp/internal/logger"
	"github.com/cleared-dev/microerp/internal/model"
	"github.com/cleared-dev/microerp/internal/store"
	"github.com/cleared-dev/microerp/internal/structure"
)

// ErrMalformed wraps every parse or schema error found during import.
var ErrMalformed = errors.New("malformed backup")

// Counts is the number of records per collection.
type Counts map[store.Collection]int

// Total returns the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// DefaultFileName returns the suggested export file name for day t.
func DefaultFileName(t time.Time) string {
	return "MicroERP_Backup_" + t.Format("2006-01-02") + ".json"
}

// Export writes every collection to w as one indented JSON object, keys in
// collection order. Reads happen inside one transaction.
func Export(ctx context.Context, st *store.Store, w io.Writer) (Counts, error) {
	counts := Counts{}
	var buf bytes.Buffer
	err := st.InTx(ctx, func(tx *store.Tx) error {
		buf.WriteString("{")
		for i, c := range store.Collections {
			docs, err := tx.All(ctx, c)
			if err != nil {
				return err
			}
			if docs == nil {
				docs = []json.RawMessage{}
			}
			key, _ := json.Marshal(string(c))
			body, err := json.Marshal(docs)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", c, err)
			}
			if i > 0 {
				buf.WriteString(",")
			}
			buf.Write(key)
			buf.WriteString(":")
			buf.Write(body)
			counts[c] = len(docs)
		}
		buf.WriteString("}")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("export: indenting: %w", err)
	}
	out.WriteByte('\n')
	if _, err := w.Write(out.Bytes()); err != nil {
		return nil, fmt.Errorf("export: writing: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Int("records", counts.Total()).Msg("backup exported")
	return counts, nil
}

// Import reads a backup document from r, validates every record, and
// upserts them all inside one transaction. Unknown top-level keys are
// ignored. Imported centers must form a valid hierarchy together with the
// centers already stored. On any error nothing is written.
func Import(ctx context.Context, st *store.Store, r io.Reader) (Counts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("import: reading: %w", err)
	}
	batches, err := parse(data)
	if err != nil {
		return nil, err
	}

	counts := Counts{}
	err = st.InTx(ctx, func(tx *store.Tx) error {
		for _, c := range store.Collections {
			docs, ok := batches[c]
			if !ok {
				continue
			}
			if err := tx.BulkPut(ctx, c, docs); err != nil {
				return fmt.Errorf("%s: %w", c, err)
			}
			counts[c] = len(docs)
		}
		if _, ok := batches[store.Centers]; ok {
			return checkCenters(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Int("records", counts.Total()).Msg("backup imported")
	return counts, nil
}

func parse(data []byte) (map[store.Collection][]json.RawMessage, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	batches := make(map[store.Collection][]json.RawMessage)
	for _, c := range store.Collections {
		v := doc.Get(string(c))
		if !v.Exists() {
			continue
		}
		if !v.IsArray() {
			return nil, fmt.Errorf("%w: %s must be an array", ErrMalformed, c)
		}
		var docs []json.RawMessage
		var recErr error
		v.ForEach(func(idx, rec gjson.Result) bool {
			raw := json.RawMessage(rec.Raw)
			if err := checkRecord(c, raw); err != nil {
				recErr = fmt.Errorf("%w: %s[%d]: %v", ErrMalformed, c, idx.Int(), err)
				return false
			}
			docs = append(docs, raw)
			return true
		})
		if recErr != nil {
			return nil, recErr
		}
		if docs == nil {
			docs = []json.RawMessage{}
		}
		batches[c] = docs
	}
	return batches, nil
}

// checkRecord verifies rec is an object that decodes into the collection's
// model type and carries a usable id.
func checkRecord(c store.Collection, rec json.RawMessage) error {
	if !gjson.ParseBytes(rec).IsObject() {
		return errors.New("record is not an object")
	}
	if _, err := store.DocID(rec); err != nil {
		return err
	}
	target := newRecord(c)
	if target == nil {
		return fmt.Errorf("no schema for %s", c)
	}
	return json.Unmarshal(rec, target)
}

// checkCenters validates every stored center against the merged set, so
// imported parent links obey the same rules as a save.
func checkCenters(ctx context.Context, tx *store.Tx) error {
	centers, err := store.List[model.Center](ctx, tx, store.Centers)
	if err != nil {
		return err
	}
	for _, c := range centers {
		if err := structure.Validate(c, centers); err != nil {
			return fmt.Errorf("%w: centers: center %d: %w", ErrMalformed, c.ID, err)
		}
	}
	return nil
}

func newRecord(c store.Collection) any {
	switch c {
	case store.Accounts:
		return &model.Account{}
	case store.JournalEntries:
		return &model.JournalEntry{}
	case store.Suppliers:
		return &model.Supplier{}
	case store.Invoices:
		return &model.Invoice{}
	case store.Centers:
		return &model.Center{}
	case store.Users:
		return &model.User{}
	case store.Roles:
		return &model.Role{}
	}
	return nil
}
