package facturacion

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/firma"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	pkgsunat "github.com/jhoicas/Facturacion-api/pkg/sunat"
)

// Credenciales es el juego completo de credenciales SUNAT resuelto para un
// envío: clave SOL, certificado de firma y credenciales OAuth2 del API.
type Credenciales struct {
	Env           string // beta | prod
	RUC           string
	SolUser       string // usuario SOL secundario, sin RUC
	SolPass       string
	CertP12Base64 string
	CertP12Pass   string
	ClientID      string
	ClientSecret  string
}

// Username devuelve el usuario SOL completo (RUC + usuario secundario).
func (c *Credenciales) Username() string { return c.RUC + c.SolUser }

// Resolutor arma las credenciales de un envío. Con empresa autenticada lee la
// tabla de claves cifradas; si el token no trae empresa pero el payload
// declara un RUC, la empresa se busca por RUC; solo cuando nada identifica a
// un contribuyente se usa la configuración de entorno (desarrollo).
type Resolutor struct {
	empresas repository.EmpresaRepository
	claves   repository.ClaveRepository
	cfg      config.SunatConfig
}

// NewResolutor construye el resolutor de credenciales.
func NewResolutor(empresas repository.EmpresaRepository, claves repository.ClaveRepository, cfg config.SunatConfig) *Resolutor {
	return &Resolutor{empresas: empresas, claves: claves, cfg: cfg}
}

// Resolver devuelve las credenciales y la empresa para el envío. Orden:
// empresa del contexto autenticado, empresa dueña del RUC declarado en el
// payload y, solo sin ninguno de los dos, el fallback de configuración
// (empresa nil). Un RUC declarado que no corresponde a ninguna empresa es un
// error: jamás se emite con credenciales ajenas.
func (r *Resolutor) Resolver(empresaID, rucDeclarado string) (*Credenciales, *entity.Empresa, error) {
	var empresa *entity.Empresa
	var err error
	switch {
	case empresaID != "":
		empresa, err = r.empresas.GetByID(empresaID)
	case rucDeclarado != "":
		empresa, err = r.empresas.GetByRUC(rucDeclarado)
	default:
		return r.desdeConfig()
	}
	if err != nil {
		if errors.Is(err, domain.ErrEmpresaNotFound) || errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrEmpresaNotFound
		}
		return nil, nil, err
	}
	if err := pkgsunat.ValidarRUC(empresa.RUC); err != nil {
		return nil, nil, fmt.Errorf("%w: empresa %s: %v", sunat.ErrConfiguracion, empresa.ID, err)
	}

	claves, err := r.claves.GetAll(empresa.ID)
	if err != nil && !errors.Is(err, domain.ErrClaveNotFound) {
		return nil, nil, err
	}

	creds := &Credenciales{Env: r.cfg.Env, RUC: empresa.RUC}
	for _, c := range claves {
		switch c.Tipo {
		case entity.ClaveSolUser:
			creds.SolUser = c.Valor
		case entity.ClaveSolPass:
			creds.SolPass = c.Valor
		case entity.ClaveCertP12:
			creds.CertP12Base64 = c.Valor
		case entity.ClaveCertPass:
			creds.CertP12Pass = c.Valor
		case entity.ClaveEnv:
			creds.Env = c.Valor
		case entity.ClaveClientID:
			creds.ClientID = c.Valor
		case entity.ClaveClientSecret:
			creds.ClientSecret = c.Valor
		}
	}
	if creds.SolUser == "" || creds.SolPass == "" {
		return nil, nil, fmt.Errorf("%w: la empresa %s no tiene credenciales SOL registradas", sunat.ErrConfiguracion, empresa.ID)
	}
	if creds.ClientID == "" {
		// SUNAT entrega el client_id con forma de RUC en la mayoría de altas.
		creds.ClientID = empresa.RUC
	}
	return creds, empresa, nil
}

func (r *Resolutor) desdeConfig() (*Credenciales, *entity.Empresa, error) {
	if r.cfg.RUC == "" || r.cfg.SolUser == "" || r.cfg.SolPass == "" {
		return nil, nil, fmt.Errorf("%w: sin empresa autenticada se requieren SUNAT_RUC, SUNAT_SOL_USER y SUNAT_SOL_PASS", sunat.ErrConfiguracion)
	}
	if err := pkgsunat.ValidarRUC(r.cfg.RUC); err != nil {
		return nil, nil, fmt.Errorf("%w: SUNAT_RUC: %v", sunat.ErrConfiguracion, err)
	}
	creds := &Credenciales{
		Env:           r.cfg.Env,
		RUC:           r.cfg.RUC,
		SolUser:       r.cfg.SolUser,
		SolPass:       r.cfg.SolPass,
		CertP12Base64: r.cfg.CertP12Base64,
		CertP12Pass:   r.cfg.CertP12Pass,
		ClientID:      r.cfg.ClientID,
		ClientSecret:  r.cfg.ClientSecret,
	}
	if creds.ClientID == "" {
		creds.ClientID = r.cfg.RUC
	}
	return creds, nil, nil
}

// Material devuelve el certificado de firma para las credenciales. Orden:
// p12 de la empresa, p12 de configuración (base64 o archivo) y, solo en beta
// con SUNAT_DEV_SELF_SIGNED_CERT=1, un par autofirmado.
func (r *Resolutor) Material(creds *Credenciales) (tls.Certificate, error) {
	if creds.CertP12Base64 != "" {
		return firma.MaterialDesdeP12Base64(creds.CertP12Base64, creds.CertP12Pass)
	}
	if r.cfg.CertP12Base64 != "" {
		return firma.MaterialDesdeP12Base64(r.cfg.CertP12Base64, r.cfg.CertP12Pass)
	}
	if r.cfg.CertP12Path != "" {
		return firma.MaterialDesdeArchivo(r.cfg.CertP12Path, r.cfg.CertP12Pass)
	}
	if r.cfg.DevSelfSigned && creds.Env != "prod" {
		return firma.MaterialAutofirmado()
	}
	return tls.Certificate{}, fmt.Errorf("%w: no hay certificado de firma para el RUC %s", sunat.ErrConfiguracion, creds.RUC)
}
