package ubl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NombreComprobante genera el nombre base SUNAT de un comprobante:
// {ruc}-{tipoDoc}-{serie}-{correlativo a 8 dígitos}. Sin extensión.
func NombreComprobante(ruc, tipoDoc, serie, correlativo string) string {
	return fmt.Sprintf("%s-%s-%s-%s", ruc, tipoDoc, serie, padCorrelativo(correlativo, 8))
}

// NombreBaja genera el nombre base de una comunicación de baja:
// {ruc}-RA-{yyyymmdd}-{correlativo a 5 dígitos}.
func NombreBaja(ruc string, fechaComunicacion time.Time, correlativo int) string {
	return fmt.Sprintf("%s-RA-%s-%05d", ruc, fechaComunicacion.Format("20060102"), correlativo)
}

// NombreResumen genera el nombre base de un resumen diario:
// {ruc}-RC-{yyyymmdd}-{correlativo a 5 dígitos}.
func NombreResumen(ruc string, fechaResumen time.Time, correlativo int) string {
	return fmt.Sprintf("%s-RC-%s-%05d", ruc, fechaResumen.Format("20060102"), correlativo)
}

// IDBaja devuelve el cbc:ID interno del documento de baja (RA-yyyymmdd-nnnnn).
func IDBaja(fechaComunicacion time.Time, correlativo int) string {
	return fmt.Sprintf("RA-%s-%05d", fechaComunicacion.Format("20060102"), correlativo)
}

// IDResumen devuelve el cbc:ID interno del resumen (RC-yyyymmdd-nnnnn).
func IDResumen(fechaResumen time.Time, correlativo int) string {
	return fmt.Sprintf("RC-%s-%05d", fechaResumen.Format("20060102"), correlativo)
}

// padCorrelativo normaliza un correlativo numérico a n dígitos con ceros a la
// izquierda. Si no es numérico se devuelve tal cual (series especiales).
func padCorrelativo(corr string, n int) string {
	corr = strings.TrimSpace(corr)
	if _, err := strconv.Atoi(corr); err != nil {
		return corr
	}
	if len(corr) >= n {
		return corr
	}
	return strings.Repeat("0", n-len(corr)) + corr
}
