package dto

// CreateEmpresaRequest body para POST /api/empresas.
type CreateEmpresaRequest struct {
	RazonSocial string `json:"razon_social"`
	RUC         string `json:"ruc"`
	Direccion   string `json:"direccion,omitempty"`
	Ubigeo      string `json:"ubigeo,omitempty"`
	Telefono    string `json:"telefono,omitempty"`
	Email       string `json:"email,omitempty"`
}

// EmpresaResponse empresa en respuestas.
type EmpresaResponse struct {
	ID          string `json:"id"`
	RazonSocial string `json:"razon_social"`
	RUC         string `json:"ruc"`
	Direccion   string `json:"direccion,omitempty"`
	Ubigeo      string `json:"ubigeo,omitempty"`
	Telefono    string `json:"telefono,omitempty"`
	Email       string `json:"email,omitempty"`
	Estado      string `json:"estado"`
}
