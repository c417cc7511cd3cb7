package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/freeler-client/internal/api/dto"
	"github.com/spec-kit/freeler-client/internal/service"
)

// LookupHandler exposes national ID lookups.
type LookupHandler struct {
	lookup *service.LookupService
}

// NewLookupHandler constructs handler.
func NewLookupHandler(lookupService *service.LookupService) *LookupHandler {
	return &LookupHandler{lookup: lookupService}
}

// NationalID handles GET /lookup/national-id/:id.
func (h *LookupHandler) NationalID(c *fiber.Ctx) error {
	person, err := h.lookup.FindPerson(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.PersonEnvelope{Data: *person})
}
