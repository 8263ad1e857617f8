package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DecodePolicy decides what a listing does with a row that cannot be
// decoded into its record type.
type DecodePolicy int

const (
	// DecodeSkip drops the row and logs a warning.
	DecodeSkip DecodePolicy = iota
	// DecodeStrict fails the whole listing.
	DecodeStrict
)

func (p DecodePolicy) String() string {
	if p == DecodeStrict {
		return "strict"
	}
	return "skip"
}

// ParseDecodePolicy accepts "skip" or "strict".
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return DecodeSkip, nil
	case "strict":
		return DecodeStrict, nil
	}
	return DecodeSkip, fmt.Errorf("unknown decode policy %q (want skip or strict)", s)
}

// Collect scans every row into a T, applying policy to rows that fail to
// decode. Structs are scanned by column name; scalars and sql.Scanner types
// take the single column. rows is always closed. The result is never nil.
func Collect[T any](rows *sqlx.Rows, policy DecodePolicy) ([]T, error) {
	defer rows.Close()

	scan := rows.StructScan
	if scalar[T]() {
		scan = func(dest any) error { return rows.Scan(dest) }
	}

	out := make([]T, 0)
	for rows.Next() {
		var v T
		if err := scan(&v); err != nil {
			if policy == DecodeStrict {
				return nil, fmt.Errorf("decode row: %w", err)
			}
			slog.Warn("dropping undecodable row", "error", err)
			continue
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var scannerType = reflect.TypeFor[sql.Scanner]()

// scalar reports whether T is read from a single column.
func scalar[T any]() bool {
	t := reflect.TypeFor[T]()
	if reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	return t.Kind() != reflect.Struct
}
