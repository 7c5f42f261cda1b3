// Package facturacion orquesta la emisión de comprobantes electrónicos:
// resuelve credenciales por empresa, construye el UBL, lo firma, lo empaqueta
// y lo entrega a SUNAT por el canal que corresponde al tipo de documento.
package facturacion

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/rest"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/soap"
)

// Firmador aplica la firma XMLDSig enveloped a un documento UBL.
type Firmador interface {
	Firmar(xmlBytes []byte) ([]byte, error)
}

// BillClient es el canal SOAP legado (comprobantes y guías legadas).
type BillClient interface {
	EnviarComprobante(ctx context.Context, fileName string, zipBytes []byte) ([]byte, error)
	EnviarResumen(ctx context.Context, fileName string, zipBytes []byte) (string, error)
	ConsultarTicket(ctx context.Context, ticket string) (*soap.StatusTicket, error)
}

// GuiaRestClient es el canal REST vigente para guías de remisión.
type GuiaRestClient interface {
	Enviar(ctx context.Context, fileName string, zipBytes []byte) (string, error)
	Consultar(ctx context.Context, ticket string) (*rest.ResultadoEnvio, error)
	ConsultarHastaCDR(ctx context.Context, ticket string) (*rest.ResultadoEnvio, error)
}
