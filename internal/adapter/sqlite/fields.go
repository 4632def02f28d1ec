package sqlite

import (
	"context"
	"fmt"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// updatableField maps an element field to its column. Only listed fields can
// be set by name.
type updatableField struct {
	table  string
	column string
}

var updatableFields = map[string]map[string]updatableField{
	"propaldet": {
		"description": {table: "proposal_lines", column: "description"},
	},
}

// Host error codes reported through domain.ObjectError.
const (
	errFieldNotUpdatable = "ErrorFieldNotUpdatable"
	errRecordNotFound    = "ErrorRecordNotFound"
)

// SetField writes one named field of an element and records the modifying user.
func (s *Store) SetField(ctx context.Context, element string, id int64, field, value string, actor domain.Actor) error {
	op := fmt.Sprintf("set %s.%s", element, field)

	f, ok := updatableFields[element][field]
	if !ok {
		return &domain.ObjectError{Op: op, Messages: []string{errFieldNotUpdatable}}
	}

	// Table and column names come from the fixed map above.
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, fk_user_modif = ? WHERE id = ?`, f.table, f.column)
	res, err := s.db.ExecContext(ctx, query, value, actor.ID, id)
	if err != nil {
		return &domain.ObjectError{Op: op, Messages: []string{err.Error()}}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.ObjectError{Op: op, Messages: []string{errRecordNotFound}}
	}
	return nil
}
