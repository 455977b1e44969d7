package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
	domaininv "github.com/jhoicas/inventario-movimientos/internal/domain/inventory"
	"github.com/jhoicas/inventario-movimientos/internal/domain/repository"
)

// DefaultNumberMaxAttempts intentos por defecto ante colisión de número de documento.
const DefaultNumberMaxAttempts = 5

// NumberGenerator reserva números de documento secuenciales. La reserva ocurre dentro de la
// transacción del documento; si dos transacciones obtienen el mismo número, la restricción UNIQUE
// rechaza la segunda (domain.ErrDuplicate) y WithRetry repite la operación completa.
type NumberGenerator struct {
	maxAttempts int
	metrics     MetricsRecorder
	clock       func() time.Time
}

// NewNumberGenerator construye el generador.
func NewNumberGenerator(maxAttempts int, metrics MetricsRecorder) *NumberGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultNumberMaxAttempts
	}
	return &NumberGenerator{maxAttempts: maxAttempts, metrics: metricsOrNoop(metrics), clock: time.Now}
}

// WithClock reemplaza el reloj (fecha de los prefijos y de los registros).
func (g *NumberGenerator) WithClock(clock func() time.Time) *NumberGenerator {
	g.clock = clock
	return g
}

// Now devuelve la hora actual según el reloj del generador.
func (g *NumberGenerator) Now() time.Time {
	return g.clock()
}

// Reserve calcula el siguiente número del prefijo a partir del mayor existente.
func (g *NumberGenerator) Reserve(ctx context.Context, finder repository.NumberFinder, prefix string) (string, error) {
	last, err := finder.LastNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("buscar último número %s: %w", prefix, err)
	}
	return domaininv.NextNumber(prefix, last)
}

// WithRetry ejecuta fn y la repite mientras falle por número duplicado, hasta maxAttempts.
func (g *NumberGenerator) WithRetry(ctx context.Context, kind string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		g.metrics.NumberRetry(kind)
		if attempt >= g.maxAttempts {
			return fmt.Errorf("%w: no se pudo reservar número de %s tras %d intentos", domain.ErrConflict, kind, attempt)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, ctxErr)
		}
	}
}
