package router

import "github.com/gofiber/fiber/v2"

// Router installs a set of routes on the fiber application
type Router interface {
	InstallRouter(app *fiber.App)
}
