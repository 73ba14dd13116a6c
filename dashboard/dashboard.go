// Package dashboard serves the in-memory query stats over HTTP as a
// small JSON API.
package dashboard

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/mohe22/ads-blocker/stats"
)

// New builds the fiber app over st.
func New(st *stats.Stats) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/api/stats", func(c *fiber.Ctx) error {
		return c.JSON(st.Summary())
	})

	app.Get("/api/query-types", func(c *fiber.Ctx) error {
		return c.JSON(st.QueryTypes())
	})

	app.Get("/api/top-domains", func(c *fiber.Ctx) error {
		return c.JSON(st.TopDomains(20))
	})

	app.Get("/api/top-clients", func(c *fiber.Ctx) error {
		return c.JSON(st.TopClients(20))
	})

	app.Get("/api/recent-queries", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 {
			limit = 50
		}
		return c.JSON(st.Recent(limit))
	})

	return app
}

// Serve runs the app on addr; meant to be launched on its own
// goroutine next to the DNS loop.
func Serve(st *stats.Stats, addr string) {
	if err := New(st).Listen(addr); err != nil {
		log.Printf("[WARN] dashboard stopped: %v", err)
	}
}
