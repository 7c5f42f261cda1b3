// Package soap implementa el transporte legado de SUNAT (billService SOAP 1.1
// con WS-Security UsernameToken): sendBill, sendSummary, sendPack y getStatus.
package soap

import "strings"

// Identificadores de entorno SUNAT.
const (
	EnvBeta = "beta"
	EnvProd = "prod"
)

// Endpoints del billService de comprobantes (facturas, boletas, RA/RC).
const (
	billURLBeta = "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService"
	billURLProd = "https://e-factura.sunat.gob.pe/ol-ti-itcpfegem/billService"
)

// Endpoints del billService legado de guías de remisión.
const (
	guiaURLBeta = "https://e-beta.sunat.gob.pe/ol-ti-itemision-guia-gem-beta/billService"
	guiaURLProd = "https://e-guiaremision.sunat.gob.pe/ol-ti-itemision-guia-gem/billService"
)

// BillEndpoint devuelve la URL del billService de comprobantes para el entorno.
func BillEndpoint(env string) string {
	if env == EnvProd {
		return billURLProd
	}
	return billURLBeta
}

// GuiaEndpoint devuelve la URL del billService legado de guías para el entorno.
func GuiaEndpoint(env string) string {
	if env == EnvProd {
		return guiaURLProd
	}
	return guiaURLBeta
}

// WSDLURL devuelve la URL del WSDL de un endpoint billService.
func WSDLURL(endpoint string) string {
	return endpoint + "?wsdl"
}

// normalizarEndpoint quita el puerto :443 explícito; el servicio de SUNAT
// rechaza peticiones cuyo Host lo incluye.
func normalizarEndpoint(url string) string {
	return strings.Replace(url, ":443/", "/", 1)
}
