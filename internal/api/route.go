package api

import (
	v1 "github.com/clipline/sms-campaigns/internal/api/v1"
	"github.com/clipline/sms-campaigns/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler) {
	app.Get("/ping", handler.Pong)

	api := app.Group("/v1", middleware.RequireUser())

	api.Get("/messages", handler.GetMessages)
	api.Post("/messages", handler.SaveMessage)
	api.Delete("/messages/:id", handler.DeleteMessage)

	api.Post("/messages/:id/validate", handler.ValidateMessage)
	api.Post("/messages/:id/activate", handler.ActivateMessage)
	api.Post("/messages/:id/deactivate", handler.DeactivateMessage)
	api.Post("/messages/:id/test-send", handler.TestSendMessage)

	api.Get("/messages/:id/recipients", handler.GetRecipients)
	api.Post("/messages/:id/recipients/select", handler.SelectRecipients)
	api.Post("/messages/:id/recipients/deselect", handler.DeselectRecipients)
	api.Post("/messages/:id/recipients/custom", handler.AddCustomRecipient)
	api.Post("/messages/:id/recipients/reset", handler.ResetRecipients)

	api.Get("/progress", handler.GetProgress)

	api.Get("/credits/balance", handler.GetBalance)
	api.Get("/credits/transactions", handler.GetTransactions)
}
