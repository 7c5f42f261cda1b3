package soap

import (
	"encoding/xml"
	"strings"
)

// AuthHeaderProvider produce el contenido XML del soap-env:Header. Se inyecta
// en el cliente para poder variar el esquema de autenticación sin tocar el
// armado del envelope.
type AuthHeaderProvider interface {
	HeaderXML() string
}

// UsernameToken es el proveedor WS-Security mínimo que acepta SUNAT: solo
// Username y Password en texto plano. Agregar Nonce, Created o atributos
// wsu:Id provoca rechazo del servicio.
type UsernameToken struct {
	Username string // RUC + usuario SOL, ej. 20610588981MODDATOS
	Password string
}

const wsseNS = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
const passwordTextType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"

// HeaderXML implementa AuthHeaderProvider.
func (t UsernameToken) HeaderXML() string {
	var sb strings.Builder
	sb.WriteString(`<wsse:Security xmlns:wsse="` + wsseNS + `">`)
	sb.WriteString(`<wsse:UsernameToken>`)
	sb.WriteString(`<wsse:Username>` + escapar(t.Username) + `</wsse:Username>`)
	sb.WriteString(`<wsse:Password Type="` + passwordTextType + `">` + escapar(t.Password) + `</wsse:Password>`)
	sb.WriteString(`</wsse:UsernameToken>`)
	sb.WriteString(`</wsse:Security>`)
	return sb.String()
}

func escapar(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
