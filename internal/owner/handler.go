package owner

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the owner directory endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an owner handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
}

// Register creates a new owner.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	o, err := h.service.Register(c.UserContext(), req.DisplayName)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":           o.ID,
		"display_name": o.DisplayName,
		"created_at":   o.CreatedAt,
	})
}

// Get retrieves an owner by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	o, err := h.service.Get(c.UserContext(), c.Params("ownerId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "owner not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"id":           o.ID,
		"display_name": o.DisplayName,
		"created_at":   o.CreatedAt,
	})
}
