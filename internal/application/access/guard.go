// Package access define el guardián de acceso por sucursal que consumen los motores de inventario.
// La política de permisos es externa; RoleGuard es el adaptador por defecto basado en el rol del JWT.
package access

import (
	"context"

	"github.com/jhoicas/inventario-movimientos/internal/domain/entity"
)

// Guard decide el acceso de un actor a una sucursal. El núcleo confía en estas respuestas.
type Guard interface {
	HasBranchWriteAccess(ctx context.Context, branchID string, actor entity.Actor) bool
	HasBranchReadAccess(ctx context.Context, branchID string, actor entity.Actor) bool
	UserBranchID(actor entity.Actor) string
	HasCrossBranchAccess(role string) bool
}

var _ Guard = RoleGuard{}

// RoleGuard: admin opera en todas las sucursales; bodeguero lee y escribe en su sucursal;
// vendedor solo lee su sucursal.
type RoleGuard struct{}

// NewRoleGuard construye el guardián por roles.
func NewRoleGuard() RoleGuard { return RoleGuard{} }

func (RoleGuard) HasBranchWriteAccess(_ context.Context, branchID string, actor entity.Actor) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleBodeguero:
		return actor.BranchID != "" && actor.BranchID == branchID
	}
	return false
}

func (RoleGuard) HasBranchReadAccess(_ context.Context, branchID string, actor entity.Actor) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleBodeguero, entity.RoleVendedor:
		return actor.BranchID != "" && actor.BranchID == branchID
	}
	return false
}

func (RoleGuard) UserBranchID(actor entity.Actor) string { return actor.BranchID }

func (RoleGuard) HasCrossBranchAccess(role string) bool { return role == entity.RoleAdmin }
