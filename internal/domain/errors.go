package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrSequenceExhausted = errors.New("secuencia de numeración agotada")
	ErrUnavailable       = errors.New("servicio no disponible temporalmente, reintente")
)

// FieldProblem describe un problema de validación sobre un campo concreto.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError agrupa todos los problemas de validación de una petición.
// errors.Is(err, ErrInvalidInput) es verdadero para este tipo.
type ValidationError struct {
	Problems []FieldProblem
}

// NewValidationError construye el error; devuelve nil si no hay problemas.
func NewValidationError(problems []FieldProblem) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// TransitionError indica un cambio de estado no permitido por la máquina de estados de traslados.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transición de estado no permitida: %s → %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrConflict }
