package entity

import "time"

// Tipos de clave SUNAT almacenables por empresa (deben coincidir con el CHECK
// de la tabla clave).
const (
	ClaveSolUser      = "sunat_sol_user"      // usuario SOL secundario (sin RUC)
	ClaveSolPass      = "sunat_sol_pass"      // contraseña SOL
	ClaveCertP12      = "sunat_cert_p12"      // certificado .p12 en base64
	ClaveCertPass     = "sunat_cert_pass"     // contraseña del .p12
	ClaveEnv          = "sunat_env"           // "beta" | "prod"
	ClaveClientID     = "sunat_client_id"     // OAuth2 client_id (GRE)
	ClaveClientSecret = "sunat_client_secret" // OAuth2 client_secret (GRE)
)

// ValidClaveTipos tipos de clave reconocidos por el resolutor de credenciales.
var ValidClaveTipos = map[string]bool{
	ClaveSolUser: true, ClaveSolPass: true, ClaveCertP12: true,
	ClaveCertPass: true, ClaveEnv: true, ClaveClientID: true,
	ClaveClientSecret: true,
}

// Clave representa una credencial SUNAT de una empresa.
// Valor se persiste cifrado (AES-256-CBC, IV antepuesto, base64); el repositorio
// siempre entrega y recibe el valor en claro.
type Clave struct {
	ID        string
	EmpresaID string
	Tipo      string // ver constantes Clave*
	Valor     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
