package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestLikePattern_EscapaComodines(t *testing.T) {
	assert.Equal(t, `%caf%`, likePattern("caf"))
	assert.Equal(t, `%50\% dto\_x\\y%`, likePattern(`50% dto_x\y`))
	assert.Equal(t, `ADJ-B\_1-20240315-%`, likePrefix("ADJ-B_1-20240315-"))
}

func TestClasificacionErroresPg(t *testing.T) {
	wrap := func(code string) error { return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code}) }

	assert.True(t, isUniqueViolation(wrap("23505")))
	assert.True(t, isCheckViolation(wrap("23514")))
	assert.True(t, isRetryable(wrap("40P01")))
	assert.True(t, isRetryable(wrap("40001")))
	assert.True(t, isRetryable(wrap("57014")))
	assert.False(t, isRetryable(wrap("23505")))
	assert.False(t, isUniqueViolation(errors.New("23505 en texto")))
}

func TestFilterBuilder_PlaceholdersYOrden(t *testing.T) {
	var b filterBuilder
	b.where("company_id = " + b.arg("c1"))
	p := b.arg("b1")
	b.where("(from_branch_id = " + p + " OR to_branch_id = " + p + ")")

	assert.Equal(t, " WHERE company_id = $1 AND (from_branch_id = $2 OR to_branch_id = $2)", b.clause())
	assert.Equal(t, []any{"c1", "b1"}, b.args)
	assert.Equal(t, " ORDER BY number ASC NULLS LAST, number ASC", orderClause(transferOrderColumns, "number", false))
	assert.Equal(t, " ORDER BY created_at DESC NULLS LAST, number DESC", orderClause(transferOrderColumns, "", true))
	assert.Equal(t, "", (&filterBuilder{}).clause())
}
