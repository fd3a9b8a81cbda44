package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens an error chain into structured log fields. Postgres
// errors contribute their SQLSTATE, constraint and table whether they arrive
// through pgx or lib/pq; the unique constraints on branch codes, order
// numbers, payment references and the (branch, sku) inventory pair are the
// ones that show up in practice.
func LogFields(err error) map[string]any {
	if err == nil {
		return nil
	}

	fields := map[string]any{
		"error": err.Error(),
	}

	if typed := As(err); typed != nil {
		fields["error_code"] = typed.Code()
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
	}
	fields["error_chain"] = chain

	if code, constraint, table, detail, ok := pgFields(err); ok {
		fields["pg_code"] = code
		if constraint != "" {
			fields["pg_constraint"] = constraint
		}
		if table != "" {
			fields["pg_table"] = table
		}
		if detail != "" {
			fields["pg_detail"] = detail
		}
	}

	return fields
}

func pgFields(err error) (code, constraint, table, detail string, ok bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.Detail, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail, true
	}

	return "", "", "", "", false
}
