package ubl_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/ubl"
)

func TestConstruirBaja(t *testing.T) {
	b := &ubl.Baja{
		Correlativo:       1,
		FechaGeneracion:   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		FechaComunicacion: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Emisor:            emisorTest(),
		Detalles: []ubl.BajaDetalle{
			{TipoDoc: "01", Serie: "F001", Correlativo: "123", Motivo: "ERROR EN DIGITACION"},
		},
	}

	xmlBytes, err := ubl.ConstruirBaja(b)
	require.NoError(t, err)
	root := parsear(t, xmlBytes)

	assert.Equal(t, "VoidedDocuments", root.Tag)
	assert.Equal(t, "2.0", root.SelectElement("UBLVersionID").Text())
	assert.Equal(t, "1.0", root.SelectElement("CustomizationID").Text())
	assert.Equal(t, "RA-20260831-00001", root.SelectElement("ID").Text())
	assert.Equal(t, "2026-08-30", root.SelectElement("ReferenceDate").Text())
	assert.Equal(t, "2026-08-31", root.SelectElement("IssueDate").Text())

	sp := root.SelectElement("AccountingSupplierParty")
	require.NotNil(t, sp)
	assert.Equal(t, "20610588981", sp.SelectElement("CustomerAssignedAccountID").Text())
	assert.Equal(t, "6", sp.SelectElement("AdditionalAccountID").Text())

	line := root.SelectElement("VoidedDocumentsLine")
	require.NotNil(t, line)
	assert.Equal(t, "01", line.SelectElement("DocumentTypeCode").Text())
	assert.Equal(t, "F001", line.SelectElement("DocumentSerialID").Text())
	assert.Equal(t, "123", line.SelectElement("DocumentNumberID").Text())
	assert.Equal(t, "ERROR EN DIGITACION", line.SelectElement("VoidReasonDescription").Text())
}

func TestConstruirBaja_SinDetalles(t *testing.T) {
	_, err := ubl.ConstruirBaja(&ubl.Baja{Correlativo: 1, Emisor: emisorTest()})
	assert.Error(t, err)
}

func TestConstruirBaja_SinRUC(t *testing.T) {
	_, err := ubl.ConstruirBaja(&ubl.Baja{
		Correlativo: 1,
		Detalles:    []ubl.BajaDetalle{{TipoDoc: "01", Serie: "F001", Correlativo: "1", Motivo: "ERROR"}},
	})
	assert.Error(t, err)
}

func resumenTest() *ubl.Resumen {
	return &ubl.Resumen{
		Correlativo:     2,
		FechaGeneracion: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		FechaResumen:    time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Emisor:          emisorTest(),
		Detalles: []ubl.ResumenDetalle{{
			TipoDoc:         "03",
			DocID:           "B001-123",
			Cliente:         ubl.Cliente{TipoDoc: "1", NumDoc: "45678912"},
			Estado:          "1",
			MtoOperGravadas: decimal.NewFromInt(100),
			MtoIGV:          decimal.NewFromInt(18),
			Total:           decimal.NewFromInt(118),
		}},
	}
}

func TestConstruirResumen(t *testing.T) {
	xmlBytes, err := ubl.ConstruirResumen(resumenTest())
	require.NoError(t, err)
	root := parsear(t, xmlBytes)

	assert.Equal(t, "SummaryDocuments", root.Tag)
	assert.Equal(t, "1.1", root.SelectElement("CustomizationID").Text())
	assert.Equal(t, "RC-20260831-00002", root.SelectElement("ID").Text())

	line := root.SelectElement("SummaryDocumentsLine")
	require.NotNil(t, line)
	assert.Equal(t, "B001-123", line.SelectElement("ID").Text())
	assert.Equal(t, "1", line.FindElement("./Status/ConditionCode").Text())
	assert.Equal(t, "118.00", line.SelectElement("TotalAmount").Text())

	// Los tres BillingPayment van siempre, aun con monto cero
	pagos := line.SelectElements("BillingPayment")
	require.Len(t, pagos, 3)
	assert.Equal(t, "01", pagos[0].SelectElement("InstructionID").Text())
	assert.Equal(t, "100.00", pagos[0].SelectElement("PaidAmount").Text())
	assert.Equal(t, "02", pagos[1].SelectElement("InstructionID").Text())
	assert.Equal(t, "0.00", pagos[1].SelectElement("PaidAmount").Text())
	assert.Equal(t, "03", pagos[2].SelectElement("InstructionID").Text())

	assert.Equal(t, "18.00", line.FindElement("./TaxTotal/TaxAmount").Text())
}

func TestConstruirResumen_EstadoInvalido(t *testing.T) {
	r := resumenTest()
	r.Detalles[0].Estado = "9"
	_, err := ubl.ConstruirResumen(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estado")
}

func TestConstruirResumen_SinRUC(t *testing.T) {
	r := resumenTest()
	r.Emisor.RUC = ""
	_, err := ubl.ConstruirResumen(r)
	assert.Error(t, err)
}
