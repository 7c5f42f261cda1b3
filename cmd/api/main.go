package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appempresa "github.com/jhoicas/Facturacion-api/internal/application/empresa"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/secrets"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/soap"
	httpRouter "github.com/jhoicas/Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sunat_env", cfg.Sunat.Env).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	cipher, err := secrets.New(cfg.Secrets.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("clave de cifrado de credenciales (SECRETS_AES_KEY)")
	}

	empresaRepo := postgres.NewEmpresaRepository(pool)
	claveRepo := postgres.NewClaveRepository(pool, cipher)
	envioRepo := postgres.NewComprobanteEnvioRepository(pool)

	// Espejo local del WSDL del billService: evita resolver imports remotos
	// en cada arranque de herramientas SOAP y sirve de referencia offline.
	go func() {
		wsdlURL := cfg.Sunat.BillWsdlURL
		if wsdlURL == "" {
			wsdlURL = soap.WSDLURL(soap.BillEndpoint(cfg.Sunat.Env))
		}
		mirror := soap.NewWSDLMirror(cfg.Sunat.WsdlCacheDir)
		ruta, err := mirror.Descargar(ctx, wsdlURL)
		if err != nil {
			log.Warn().Err(err).Str("wsdl", wsdlURL).Msg("espejo de WSDL no disponible")
			return
		}
		log.Debug().Str("ruta", ruta).Msg("WSDL del billService espejado")
	}()

	empresaSvc := appempresa.NewService(empresaRepo, claveRepo)
	resolutor := facturacion.NewResolutor(empresaRepo, claveRepo, cfg.Sunat)
	facturacionSvc := facturacion.NewService(log, resolutor, envioRepo, cfg.Sunat)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 90, // sendBill espera el CDR en la misma llamada
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	httpRouter.Router(app, httpRouter.RouterDeps{
		EmpresaSvc:     empresaSvc,
		FacturacionSvc: facturacionSvc,
		JWTSecret:      cfg.JWT.Secret,
		SwaggerPath:    "./docs/swagger.json",
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
