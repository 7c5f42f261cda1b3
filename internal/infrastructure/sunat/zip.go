package sunat

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Comprimir empaqueta el XML firmado en un ZIP en memoria. SUNAT exige que el
// ZIP contenga un único archivo {fileName}.xml con el mismo nombre base que
// el ZIP enviado.
func Comprimir(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlFilename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// Descomprimir extrae el primer archivo con contenido de un ZIP en memoria.
// Los CDR de SUNAT traen un único XML (a veces precedido de una carpeta
// vacía); las entradas de tamaño cero se ignoran.
func Descomprimir(zipBytes []byte) (name string, content []byte, err error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", nil, fmt.Errorf("zip: abrir: %w", err)
	}
	for _, f := range zr.File {
		if f.UncompressedSize64 == 0 {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", nil, fmt.Errorf("zip: abrir entrada %s: %w", f.Name, err)
		}
		content, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", nil, fmt.Errorf("zip: leer entrada %s: %w", f.Name, err)
		}
		return f.Name, content, nil
	}
	return "", nil, fmt.Errorf("zip: archivo vacío")
}
