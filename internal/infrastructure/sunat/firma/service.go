// Firma XMLDSig enveloped para comprobantes SUNAT. Inyecta <ds:Signature>
// dentro de ext:ExtensionContent, primer hijo del documento.

package firma

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// Firmador firma documentos UBL con el certificado del emisor.
type Firmador struct {
	cert tls.Certificate
}

// NewFirmador crea el servicio de firma con el material cargado.
func NewFirmador(cert tls.Certificate) *Firmador {
	return &Firmador{cert: cert}
}

// Firmar calcula el digest SHA-256 del documento completo (Reference con URI
// vacía, transforms enveloped + exc-c14n), firma el SignedInfo con RSA-SHA256
// e inyecta el nodo ds:Signature en el ExtensionContent vacío.
//
// La Reference con URI="" es deliberada: referenciar por Id obligaría a
// inyectar atributos Id en la raíz y SUNAT rechaza documentos con atributos
// no contemplados en el esquema.
func (s *Firmador) Firmar(xmlBytes []byte) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("firma: XML vacío")
	}
	priv, ok := s.cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("firma: el certificado debe incluir llave privada RSA")
	}
	x509Cert := s.cert.Leaf
	if x509Cert == nil {
		var err error
		x509Cert, err = x509.ParseCertificate(s.cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("firma: parsear certificado: %w", err)
		}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("firma: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("firma: documento sin raíz")
	}

	extContent, err := asegurarExtensionContent(root)
	if err != nil {
		return nil, err
	}

	// 1) Digest del documento sin firma (la transform enveloped excluye la
	// firma que aún no existe, así que el digest se toma del documento tal cual).
	normalizado, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("firma: serializar: %w", err)
	}
	canonicalDoc, err := canonicalizar(normalizado)
	if err != nil {
		return nil, fmt.Errorf("firma: canonicalizar documento: %w", err)
	}
	docDigest := sha256.Sum256(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo canónico y su firma RSA-SHA256
	signedInfoXML := buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizar([]byte(signedInfoXML))
	if err != nil {
		return nil, fmt.Errorf("firma: canonicalizar SignedInfo: %w", err)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("firma: firmar SignedInfo: %w", err)
	}

	// 3) Nodo completo ds:Signature con KeyInfo X509
	certB64 := base64.StdEncoding.EncodeToString(x509Cert.Raw)
	signatureXML := buildSignature(signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue), certB64)

	// 4) Inyección dentro del ExtensionContent
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("firma: parsear Signature: %w", err)
	}
	extContent.AddChild(sigDoc.Root())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("firma: escribir documento: %w", err)
	}
	return out.Bytes(), nil
}

// asegurarExtensionContent devuelve el primer ext:ExtensionContent vacío del
// documento, creando la cadena ext:UBLExtensions/ext:UBLExtension/
// ext:ExtensionContent como primer hijo de la raíz si no existe.
func asegurarExtensionContent(root *etree.Element) (*etree.Element, error) {
	var exts *etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == "UBLExtensions" {
			exts = child
			break
		}
	}
	if exts == nil {
		exts = etree.NewElement("ext:UBLExtensions")
		root.InsertChildAt(0, exts)
	}
	for _, ext := range exts.ChildElements() {
		if ext.Tag != "UBLExtension" {
			continue
		}
		for _, ec := range ext.ChildElements() {
			if ec.Tag == "ExtensionContent" && len(ec.ChildElements()) == 0 {
				return ec, nil
			}
		}
	}
	ext := exts.CreateElement("ext:UBLExtension")
	return ext.CreateElement("ext:ExtensionContent"), nil
}

func canonicalizar(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgExcC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgExcC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" Id="` + SignatureID + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}
