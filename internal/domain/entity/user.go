package entity

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// Actor es el usuario autenticado que ejecuta una operación (extraído del JWT).
type Actor struct {
	UserID    string
	CompanyID string
	BranchID  string // sucursal asignada; vacío para usuarios sin sucursal
	Role      string // admin, bodeguero, vendedor
}
