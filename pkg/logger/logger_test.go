package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func TestNew_EstampaServicio(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Service: "facturacion-api", Output: &buf})

	log.Info().Msg("iniciando")

	assert.Contains(t, buf.String(), `"service":"facturacion-api"`)
	assert.Contains(t, buf.String(), `"message":"iniciando"`)
}

func TestConEnvio_CamposFijos(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})

	log.ConEnvio("env-1", "20610588981-01-F001-00000001").Info().Msg("comprobante firmado")

	assert.Contains(t, buf.String(), `"envio":"env-1"`)
	assert.Contains(t, buf.String(), `"file":"20610588981-01-F001-00000001"`)
}

func TestNew_NivelPorDefecto(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "nivel-raro", Output: &buf})

	log.Debug().Msg("no debe salir")
	assert.Empty(t, buf.String(), "el nivel por defecto es info")
}
