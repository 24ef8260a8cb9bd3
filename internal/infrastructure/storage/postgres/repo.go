package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// repoBase carries what every repository needs: the transaction manager
// (which hands out the pool or the active tx) and the statement builder.
type repoBase struct {
	tm *TxManager
}

func newRepoBase(tm *TxManager) repoBase {
	return repoBase{tm: tm}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (b repoBase) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// marshalJSON encodes v for a jsonb column.
func marshalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return raw, nil
}

// marshalNullableJSON encodes v for a jsonb column, mapping a nil pointer
// to SQL NULL instead of the literal "null".
func marshalNullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return marshalJSON(v)
}

// unmarshalJSON decodes a jsonb column into v. NULL is left as the zero value.
func unmarshalJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return nil
}
