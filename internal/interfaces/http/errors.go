package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/domain"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
)

// writeError traduce un error de dominio a status HTTP + dto.ErrorResponse.
// Los errores no reconocidos se registran y responden 500 sin exponer el detalle.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details := make([]dto.FieldError, 0, len(verr.Problems))
		for _, p := range verr.Problems {
			details = append(details, dto.FieldError{Field: p.Field, Message: p.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION_ERROR", Message: domain.ErrInvalidInput.Error(), Details: details})
	}
	var terr *domain.TransitionError
	if errors.As(err, &terr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: terr.Error()})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrSequenceExhausted):
		status, code = fiber.StatusConflict, "SEQUENCE_EXHAUSTED"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnavailable):
		status, code = fiber.StatusServiceUnavailable, "UNAVAILABLE"
	}
	if status == fiber.StatusInternalServerError {
		if log != nil {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno del servidor"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
