package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			tag := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if tag == "-" {
				return ""
			}
			if tag != "" {
				return tag
			}
		}
		return f.Name
	})
	return v
}

// parseBody decodifica el body JSON y valida las etiquetas `validate`.
// Si falla ya escribió la respuesta 400 y devuelve ok=false.
func parseBody(c *fiber.Ctx, dest any) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo JSON inválido"})
	}
	return validateRequest(c, dest)
}

// parseQuery decodifica los parámetros de consulta y los valida.
func parseQuery(c *fiber.Ctx, dest any) (bool, error) {
	if err := c.QueryParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de consulta inválidos"})
	}
	return validateRequest(c, dest)
}

func validateRequest(c *fiber.Ctx, dest any) (bool, error) {
	details := validationDetails(validate.Struct(dest))
	if len(details) == 0 {
		return true, nil
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code: "VALIDATION_ERROR", Message: "entrada inválida", Details: details,
	})
}

// validationDetails lista todos los campos con problema (no solo el primero).
func validationDetails(err error) []dto.FieldError {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []dto.FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]dto.FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, dto.FieldError{Field: fieldPath(fe), Message: validationMessage(fe)})
	}
	return out
}

// fieldPath deja solo los nombres JSON: "CreateTransferRequest.items[0].quantity" → "items[0].quantity".
// Los segmentos en mayúscula (struct raíz y embebidos como PageRequest) se descartan.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "uuid":
		return "debe ser un UUID válido"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("debe tener al menos %s elemento(s)", fe.Param())
		}
		return fmt.Sprintf("debe ser al menos %s", fe.Param())
	case "max":
		return fmt.Sprintf("no puede superar %s", fe.Param())
	case "oneof":
		return "debe ser uno de: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "nefield":
		return "debe ser distinto de " + lowerFirst(fe.Param())
	}
	return "es inválido"
}
