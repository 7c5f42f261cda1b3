package entity

import "time"

// Empresa representa un contribuyente emisor (multi-tenant, enfoque Perú).
type Empresa struct {
	ID          string
	RazonSocial string
	RUC         string // RUC de 11 dígitos
	Direccion   string
	Ubigeo      string // código INEI de 6 dígitos
	Telefono    string
	Email       string
	Estado      string // active, suspended, inactive
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
