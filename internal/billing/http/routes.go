package billinghttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the state and action routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/state", func(r chi.Router) {
		r.Get("/", h.handleState)
		r.Get("/invoices", h.handleInvoices)
		r.Get("/ops/{op}", h.handleOp)
		r.Post("/ops/{op}/reset", h.handleResetOp)
	})
	r.Route("/actions", func(r chi.Router) {
		r.Post("/invoices", h.handleCreate)
		r.Post("/invoices/fetch", h.handleFetch)
		r.Route("/invoices/{id}", func(r chi.Router) {
			r.Post("/fetch", h.handleDetail)
			r.Post("/select", h.handleSelect)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/confirm-payment", h.handleConfirmPayment)
			r.Post("/mark-paid", h.handleMarkPaid)
			r.Post("/complete", h.handleComplete)
			r.Post("/items", h.handleAddItem)
			r.Put("/items", h.handleUpdateItems)
			r.Delete("/items/{index}", h.handleDeleteItem)
			r.Post("/save-template", h.handleSaveTemplate)
		})
		r.Post("/templates/fetch", h.handleFetchTemplates)
		r.Post("/templates/{id}/apply", h.handleApplyTemplate)
		r.Delete("/templates/{id}", h.handleDeleteTemplate)
		r.Post("/roommate/fetch", h.handleRoommateList)
		r.Post("/roommate/{id}/fetch", h.handleRoommate)
	})
}
