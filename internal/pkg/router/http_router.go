package router

import (
	"github.com/fleetport/fleetport/app/controllers"
	"github.com/fleetport/fleetport/internal/pkg/middleware"
	"github.com/fleetport/fleetport/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerDriverRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Post("/register", controllers.HandleAuthRegister)
	app.Get("/activate", controllers.HandleAuthActivate)
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/logout", controllers.HandleAuthLogout)
}

func (h HttpRouter) registerDriverRoutes(app *fiber.App) {
	driver := app.Group("/driver", middleware.RequireAuth)

	driver.Get("/profile", controllers.HandleDriverProfile)
	driver.Put("/profile", controllers.HandleDriverProfileUpdate)
	driver.Post("/documents", controllers.HandleDriverDocumentUpload)

	driver.Get("/contracts", controllers.HandleDriverContractList)
	driver.Get("/contracts/:id", controllers.HandleDriverContractDetail)
	driver.Post("/contracts/:id/sign", controllers.HandleDriverContractSign)

	driver.Get("/payments", controllers.HandleDriverPaymentList)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.RequireAdmin)

	admin.Get("/drivers", controllers.HandleAdminDriverList)
	admin.Get("/drivers/:id", controllers.HandleAdminDriverDetail)
	admin.Post("/drivers/:id/verify", controllers.HandleAdminDriverVerify)
	admin.Post("/drivers/:id/reject", controllers.HandleAdminDriverReject)
	admin.Post("/documents/:id/review", controllers.HandleAdminDocumentReview)

	admin.Get("/vehicles", controllers.HandleAdminVehicleList)
	admin.Post("/vehicles", controllers.HandleAdminVehicleCreate)
	admin.Get("/vehicles/:id", controllers.HandleAdminVehicleDetail)
	admin.Put("/vehicles/:id", controllers.HandleAdminVehicleUpdate)
	admin.Post("/vehicles/:id/status", controllers.HandleAdminVehicleSetStatus)
	admin.Delete("/vehicles/:id", controllers.HandleAdminVehicleDelete)

	admin.Get("/contracts", controllers.HandleAdminContractList)
	admin.Post("/contracts", controllers.HandleAdminContractCreate)
	admin.Get("/contracts/:id", controllers.HandleAdminContractDetail)
	admin.Post("/contracts/:id/send", controllers.HandleAdminContractSend)
	admin.Post("/contracts/:id/activate", controllers.HandleAdminContractActivate)
	admin.Post("/contracts/:id/cancel", controllers.HandleAdminContractCancel)
	admin.Post("/contracts/:id/pause", controllers.HandleAdminContractPause)
	admin.Post("/contracts/:id/resume", controllers.HandleAdminContractResume)
	admin.Post("/contracts/:id/end", controllers.HandleAdminContractEnd)

	admin.Get("/payments", controllers.HandleAdminPaymentList)
	admin.Post("/payments/:id/settle", controllers.HandleAdminPaymentSettle)
	admin.Post("/ledger/sweep", controllers.HandleAdminLedgerSweep)

	admin.Get("/settings", controllers.HandleAdminSettingsGet)
	admin.Put("/settings", controllers.HandleAdminSettingsUpdate)
}
