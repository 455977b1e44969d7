// Package pdf genera la remisión imprimible de un traslado entre sucursales.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Remisión de traslado │ N° TXF + fecha + estado      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN: código + nombre      │ DESTINO: código + nombre     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | SKU | Producto | Unidad | Costo | Subtotal    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: unidades / costo total                             │
//	│  FIRMAS: despacha / recibe + QR con el número                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var statusLabels = map[string]string{
	entity.TransferStatusPending:   "PENDIENTE",
	entity.TransferStatusShipped:   "DESPACHADO",
	entity.TransferStatusReceived:  "RECIBIDO",
	entity.TransferStatusCancelled: "CANCELADO",
}

// DispatchNoteGenerator implementa inventory.TransferDocumentGenerator usando Maroto v2.
type DispatchNoteGenerator struct{}

// NewDispatchNoteGenerator construye el generador.
func NewDispatchNoteGenerator() *DispatchNoteGenerator { return &DispatchNoteGenerator{} }

// GenerateDispatchNote genera la remisión del traslado y devuelve los bytes del PDF.
func (g *DispatchNoteGenerator) GenerateDispatchNote(
	_ context.Context,
	t *entity.Transfer,
	from, to *entity.Branch,
) ([]byte, error) {
	if t == nil || from == nil || to == nil {
		return nil, fmt.Errorf("pdf: traslado y sucursales son requeridos")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Remisión "+t.Number, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(t))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(branchesRow(from, to))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRows(t.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(t))
	if t.Notes != "" {
		m.AddRows(notesRow(t.Notes))
	}
	m.AddRows(line.NewRow(6))
	m.AddRows(signatureRow(t))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar remisión: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(t *entity.Transfer) core.Row {
	fecha := t.CreatedAt.Format("02/01/2006")
	entrega := "—"
	if t.ExpectedDeliveryDate != nil {
		entrega = t.ExpectedDeliveryDate.Format("02/01/2006")
	}
	return row.New(20).Add(
		col.New(7).Add(
			text.New("REMISIÓN DE TRASLADO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Motivo: "+t.Reason, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(t.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+fecha+"   Entrega: "+entrega, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Estado: "+nonEmpty(statusLabels[t.Status], t.Status), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 14, Color: colorPrimary,
			}),
		),
	)
}

func branchesRow(from, to *entity.Branch) core.Row {
	block := func(title string, b *entity.Branch) core.Col {
		return col.New(6).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(b.Code+" · "+b.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(nonEmpty(b.Address, "—"), props.Text{Size: 8, Top: 12, Color: colorGray}),
		)
	}
	return row.New(18).Add(block("SUCURSAL ORIGEN", from), block("SUCURSAL DESTINO", to))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Unidad", 1, align.Center),
		h("Costo unit.", 2, align.Right),
		h("Subtotal", 2, align.Right),
	)
}

func tableItemRows(items []entity.TransferItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		subtotal := it.UnitCost.Mul(decimalFromInt(it.Quantity))
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(it.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(it.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.Unit, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("$"+formatMoney(it.UnitCost.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(subtotal.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(t *entity.Transfer) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			label("Unidades:"),
			text.New("Costo total:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 6}),
		),
		col.New(3).Add(
			text.New(strconv.Itoa(t.TotalQuantity()), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New("$"+formatMoney(t.TotalCost().StringFixed(0)), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 6,
			}),
		),
	)
}

func notesRow(notes string) core.Row {
	return row.New(12).Add(col.New(12).Add(
		text.New("Observaciones:", props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
		text.New(notes, props.Text{Size: 8, Top: 5, Color: colorGray}),
	))
}

func signatureRow(t *entity.Transfer) core.Row {
	firma := func(title, who string) core.Col {
		return col.New(4).Add(
			text.New("______________________________", props.Text{Size: 8, Top: 18, Align: align.Center}),
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Top: 23, Align: align.Center}),
			text.New(nonEmpty(who, " "), props.Text{Size: 7, Top: 27, Align: align.Center, Color: colorGray}),
		)
	}
	return row.New(36).Add(
		firma("DESPACHA", t.ShippedBy),
		firma("RECIBE", t.ReceivedBy),
		col.New(4).Add(code.NewQr(t.Number, props.Rect{Percent: 80, Center: true})),
	)
}
