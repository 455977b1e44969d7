package inventory

import (
	"github.com/jhoicas/inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

func toAdjustmentResponse(a *entity.Adjustment) *dto.AdjustmentResponse {
	items := make([]dto.AdjustmentItemResponse, 0, len(a.Items))
	for _, it := range a.Items {
		items = append(items, dto.AdjustmentItemResponse{
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			SKU:              it.SKU,
			CurrentQuantity:  it.CurrentQuantity,
			AdjustedQuantity: it.AdjustedQuantity,
			Difference:       it.Difference,
			Unit:             it.Unit,
			Reason:           it.Reason,
		})
	}
	return &dto.AdjustmentResponse{
		ID:         a.ID,
		Number:     a.Number,
		BranchID:   a.BranchID,
		Items:      items,
		Type:       a.Type,
		Reason:     a.Reason,
		Notes:      a.Notes,
		Status:     a.Status,
		CreatedBy:  a.CreatedBy,
		ApprovedBy: a.ApprovedBy,
		CreatedAt:  a.CreatedAt,
	}
}

func toTransferResponse(t *entity.Transfer) *dto.TransferResponse {
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitCost:    it.UnitCost,
		})
	}
	var received []dto.ReceivedItemResponse
	for _, it := range t.ReceivedItems {
		received = append(received, dto.ReceivedItemResponse{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return &dto.TransferResponse{
		ID:                   t.ID,
		Number:               t.Number,
		FromBranchID:         t.FromBranchID,
		ToBranchID:           t.ToBranchID,
		Items:                items,
		Status:               t.Status,
		Reason:               t.Reason,
		Notes:                t.Notes,
		ExpectedDeliveryDate: t.ExpectedDeliveryDate,
		TotalCost:            t.TotalCost(),
		CreatedBy:            t.CreatedBy,
		ShippedAt:            t.ShippedAt,
		ShippedBy:            t.ShippedBy,
		ReceivedAt:           t.ReceivedAt,
		ReceivedBy:           t.ReceivedBy,
		ReceivedItems:        received,
		CancelledAt:          t.CancelledAt,
		CancelledBy:          t.CancelledBy,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
