package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE usados por los adaptadores.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isCheckViolation detecta la violación del CHECK quantity >= 0 de branch_stock.
func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

// isRetryable indica fallos transitorios: interbloqueo, serialización o statement_timeout vencido.
func isRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	return false
}

// likePattern arma un patrón ILIKE de subcadena escapando los comodines del usuario.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// likePrefix arma un patrón LIKE de prefijo literal.
func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s) + "%"
}

// filterBuilder acumula condiciones WHERE con placeholders posicionales.
type filterBuilder struct {
	conds []string
	args  []any
}

// arg registra un valor y devuelve su placeholder ($n).
func (b *filterBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *filterBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *filterBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// orderClause traduce el campo público de orden a columna; desempata por número.
func orderClause(columns map[string]string, sortBy string, desc bool) string {
	col, ok := columns[sortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, number %s", col, dir, dir)
}
