package entity

import "time"

// Branch representa una sucursal física con stock independiente.
// Code es el código corto usado en la numeración de documentos (ej. "BOG", "MED").
type Branch struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
