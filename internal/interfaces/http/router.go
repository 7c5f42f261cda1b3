package http

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/empresa"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmpresaSvc     *empresa.Service
	FacturacionSvc *facturacion.Service
	JWTSecret      string
	SwaggerPath    string // ruta del swagger.json; vacío desactiva la UI
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.SwaggerPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: deps.SwaggerPath,
			Path:     "docs",
			Title:    "Facturación SUNAT API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Empresas y claves (protegido)
	empresas := protected.Group("/empresas")
	empresaHandler := NewEmpresaHandler(deps.EmpresaSvc)
	empresas.Post("/", RequireRol("admin"), empresaHandler.Create)
	empresas.Get("/", empresaHandler.List)
	empresas.Get("/:id", empresaHandler.GetByID)
	empresas.Put("/:id/claves", empresaHandler.UpsertClave)
	empresas.Get("/:id/claves", empresaHandler.ListClaves)
	empresas.Delete("/:id/claves/:tipo", empresaHandler.DeleteClave)

	// Emisión y consulta SUNAT (protegido)
	sunatGroup := protected.Group("/sunat")
	sunatHandler := NewSunatHandler(deps.FacturacionSvc)
	sunatGroup.Post("/comprobantes", sunatHandler.EmitirComprobante)
	sunatGroup.Post("/guias", sunatHandler.EmitirGuia)
	sunatGroup.Post("/bajas", sunatHandler.ComunicarBaja)
	sunatGroup.Post("/resumenes", sunatHandler.EnviarResumen)
	sunatGroup.Get("/envios", sunatHandler.ListEnvios)
	sunatGroup.Get("/envios/:id", sunatHandler.GetEnvio)
	sunatGroup.Post("/envios/:id/consultar", sunatHandler.ConsultarEnvio)
}
