package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// APIServer wraps the fiber app and its listen address.
type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer creates the HTTP server.
func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:   "edu-platform-api",
			BodyLimit: 12 << 20,
		}),
		listenAddress: listenAddress,
	}
}

// GetEngine returns the underlying fiber app for route registration.
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run starts listening and blocks until the server shuts down.
func (s *APIServer) Run() error {
	log.Infof("Starting API server on %s", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown gracefully drains in-flight requests and stops the listener.
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
