package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/pkg/logger"
	"github.com/jhoicas/inventario-movimientos/pkg/redis"
)

// HeaderIdempotencyKey cabecera con la que el cliente identifica un intento de creación.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	idempotencyPending = "pending"
	idempotencyDone    = "done"
)

// idempotencyRecord lo que se guarda en Redis por clave.
type idempotencyRecord struct {
	State       string `json:"state"`
	BodyHash    string `json:"bodyHash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency reproduce la respuesta guardada cuando se repite un POST con la misma Idempotency-Key.
// Misma clave con otro body → 422; la primera petición aún en curso → 409.
// Sin store (Redis deshabilitado) o sin cabecera la petición pasa tal cual.
func Idempotency(store redis.IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if store == nil || key == "" {
			return c.Next()
		}
		if len(key) > 255 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_IDEMPOTENCY_KEY", Message: "Idempotency-Key demasiado larga"})
		}
		ctx := c.Context()
		storeKey := store.IdempotencyKey(GetCompanyID(c)+":"+GetUserID(c)+":"+c.Method()+":"+c.Path(), key)
		sum := sha256.Sum256(c.Body())
		hash := hex.EncodeToString(sum[:])

		pending, _ := json.Marshal(idempotencyRecord{State: idempotencyPending, BodyHash: hash})
		acquired, err := store.SetNX(ctx, storeKey, string(pending), ttl)
		if err != nil {
			log.Warn().Err(err).Str("key", storeKey).Msg("idempotencia no disponible, se procesa sin caché")
			return c.Next()
		}
		if !acquired {
			return replayIdempotent(c, store, storeKey, hash, log)
		}

		if err := c.Next(); err != nil {
			_ = store.Del(ctx, storeKey)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if err := store.Del(ctx, storeKey); err != nil {
				log.Warn().Err(err).Str("key", storeKey).Msg("liberar clave de idempotencia")
			}
			return nil
		}
		done, _ := json.Marshal(idempotencyRecord{
			State:       idempotencyDone,
			BodyHash:    hash,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err := store.Set(ctx, storeKey, string(done), ttl); err != nil {
			log.Warn().Err(err).Str("key", storeKey).Msg("guardar respuesta idempotente")
		}
		return nil
	}
}

func replayIdempotent(c *fiber.Ctx, store redis.IdempotencyStore, storeKey, hash string, log *logger.Logger) error {
	raw, err := store.Get(c.Context(), storeKey)
	if err != nil {
		log.Warn().Err(err).Str("key", storeKey).Msg("leer clave de idempotencia")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "no se pudo verificar la idempotencia, reintente"})
	}
	if raw == "" {
		// expiró entre SetNX y Get
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "reintente la petición"})
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Error().Err(err).Str("key", storeKey).Msg("registro de idempotencia corrupto")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
	}
	if rec.BodyHash != hash {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_KEY_REUSED", Message: "la Idempotency-Key ya se usó con otro cuerpo"})
	}
	if rec.State != idempotencyDone {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "la petición original aún se está procesando"})
	}
	c.Set("Idempotent-Replayed", "true")
	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	return c.Status(rec.Status).Send(rec.Body)
}
