package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Reader is the read side of Store and Tx.
type Reader interface {
	All(ctx context.Context, c Collection) ([]json.RawMessage, error)
	Get(ctx context.Context, c Collection, id int64) (json.RawMessage, error)
	Find(ctx context.Context, c Collection, field string, value any) ([]json.RawMessage, error)
	Count(ctx context.Context, c Collection) (int, error)
}

// Writer is the write side of Store and Tx.
type Writer interface {
	Insert(ctx context.Context, c Collection, doc any) (int64, error)
	Update(ctx context.Context, c Collection, id int64, doc any) error
	Put(ctx context.Context, c Collection, doc any) (int64, error)
	BulkPut(ctx context.Context, c Collection, docs []json.RawMessage) error
	Delete(ctx context.Context, c Collection, id int64) error
}

// ReadWriter is implemented by Store and Tx.
type ReadWriter interface {
	Reader
	Writer
}

// List decodes every record of c into T.
func List[T any](ctx context.Context, r Reader, c Collection) ([]T, error) {
	docs, err := r.All(ctx, c)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs, c)
}

// Fetch decodes one record of c into T.
func Fetch[T any](ctx context.Context, r Reader, c Collection, id int64) (T, error) {
	var v T
	doc, err := r.Get(ctx, c, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, fmt.Errorf("decoding %s %d: %w", c, id, err)
	}
	return v, nil
}

// Where decodes the records of c whose field equals value.
func Where[T any](ctx context.Context, r Reader, c Collection, field string, value any) ([]T, error) {
	docs, err := r.Find(ctx, c, field, value)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs, c)
}

func decodeAll[T any](docs []json.RawMessage, c Collection) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("decoding %s record %d: %w", c, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
