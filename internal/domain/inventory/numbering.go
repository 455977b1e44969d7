package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/inventario-movimientos/internal/domain"
)

// Prefijos de entidad y ancho fijo del consecutivo.
// El ancho fijo garantiza que el orden lexicográfico y el numérico coincidan.
const (
	AdjustmentTag = "ADJ"
	TransferTag   = "TXF"
	SequenceWidth = 4
	MaxSequence   = 9999
)

// AdjustmentPrefix construye el prefijo ADJ-<sucursal>-<YYYYMMDD> (consecutivo diario por sucursal).
func AdjustmentPrefix(branchCode string, at time.Time) string {
	return AdjustmentTag + "-" + normalizeCode(branchCode) + "-" + at.Format("20060102")
}

// TransferPrefix construye el prefijo TXF-<origen><destino>-<YYYYMM> (consecutivo mensual por par de sucursales).
func TransferPrefix(fromCode, toCode string, at time.Time) string {
	return TransferTag + "-" + normalizeCode(fromCode) + normalizeCode(toCode) + "-" + at.Format("200601")
}

// NextNumber devuelve el siguiente número para prefix a partir del último emitido (vacío si no hay).
// Un último número con otro prefijo o sufijo no numérico es un error de datos.
func NextNumber(prefix, last string) (string, error) {
	seq := 0
	if last != "" {
		n, err := ParseSequence(prefix, last)
		if err != nil {
			return "", err
		}
		seq = n
	}
	seq++
	if seq > MaxSequence {
		return "", fmt.Errorf("%w: %s", domain.ErrSequenceExhausted, prefix)
	}
	return FormatNumber(prefix, seq), nil
}

// FormatNumber arma prefix-NNNN.
func FormatNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%0*d", prefix, SequenceWidth, seq)
}

// ParseSequence extrae el consecutivo de number validando que pertenezca a prefix.
func ParseSequence(prefix, number string) (int, error) {
	suffix, ok := strings.CutPrefix(number, prefix+"-")
	if !ok || len(suffix) != SequenceWidth {
		return 0, fmt.Errorf("número %q no corresponde al prefijo %q", number, prefix)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("consecutivo inválido en %q", number)
	}
	return n, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
