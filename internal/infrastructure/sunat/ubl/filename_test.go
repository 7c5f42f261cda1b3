package ubl_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/ubl"
)

func TestNombreComprobante(t *testing.T) {
	assert.Equal(t, "20610588981-01-F001-00000001",
		ubl.NombreComprobante("20610588981", "01", "F001", "1"))
	assert.Equal(t, "20610588981-03-B001-00000123",
		ubl.NombreComprobante("20610588981", "03", "B001", "123"))
	// correlativo ya normalizado se respeta
	assert.Equal(t, "20610588981-09-T001-00000045",
		ubl.NombreComprobante("20610588981", "09", "T001", "00000045"))
}

func TestNombreBajaYResumen(t *testing.T) {
	fecha := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "20610588981-RA-20260831-00001", ubl.NombreBaja("20610588981", fecha, 1))
	assert.Equal(t, "20610588981-RC-20260831-00012", ubl.NombreResumen("20610588981", fecha, 12))
	assert.Equal(t, "RA-20260831-00001", ubl.IDBaja(fecha, 1))
	assert.Equal(t, "RC-20260831-00012", ubl.IDResumen(fecha, 12))
}
