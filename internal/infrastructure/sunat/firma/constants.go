// Constantes de firma XMLDSig enveloped para comprobantes SUNAT.

package firma

// Namespaces y algoritmos XMLDSig.
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// SignatureID es el Id del nodo ds:Signature inyectado. Coincide con la
// referencia #SignatureSP del bloque cac:Signature del documento.
const SignatureID = "SignatureSP"
