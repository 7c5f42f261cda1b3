// Carga del material de firma: certificado .p12 (PKCS#12) o par autofirmado
// de desarrollo.

package firma

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
)

// MaterialDesdeP12 decodifica un .p12/.pfx en memoria. El password puede ser
// vacío si el archivo no está protegido. Un contenedor corrupto, un password
// equivocado o una llave no RSA son errores de configuración del emisor.
func MaterialDesdeP12(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: decodificar p12: %v", sunat.ErrConfiguracion, err)
	}
	if _, ok := priv.(*rsa.PrivateKey); !ok {
		return tls.Certificate{}, fmt.Errorf("%w: el p12 debe contener una llave RSA", sunat.ErrConfiguracion)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// MaterialDesdeP12Base64 decodifica un .p12 entregado en base64 (forma en que
// se guarda en la tabla clave).
func MaterialDesdeP12Base64(b64, password string) (tls.Certificate, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: p12 en base64 inválido: %v", sunat.ErrConfiguracion, err)
	}
	return MaterialDesdeP12(data, password)
}

// MaterialDesdeArchivo lee un .p12 del disco y lo decodifica.
func MaterialDesdeArchivo(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: leer p12: %v", sunat.ErrConfiguracion, err)
	}
	return MaterialDesdeP12(data, password)
}

// MaterialAutofirmado genera un par RSA-2048 con certificado autofirmado
// válido por un año. Solo para beta/desarrollo: SUNAT producción rechaza
// certificados que no emita una entidad acreditada.
func MaterialAutofirmado() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generar llave RSA: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generar serial: %w", err)
	}
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "SUNAT-DEV-SELF-SIGNED",
			Country:      []string{"PE"},
			Province:     []string{"LIMA"},
			Locality:     []string{"LIMA"},
			Organization: []string{"DEV"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("crear certificado: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("parsear certificado: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
		Leaf:        leaf,
	}, nil
}
