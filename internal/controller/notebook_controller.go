package controller

import (
	"errors"

	"collabnote-be/internal/pkg/serverutils"
	"collabnote-be/internal/repository/contract"
	"collabnote-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INotebookController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type notebookController struct {
	service service.INotebookService
}

func NewNotebookController(service service.INotebookService) INotebookController {
	return &notebookController{service: service}
}

func (c *notebookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notebooks")
	h.Get("", c.GetAll)
	h.Get(":id", c.Show)
}

func (c *notebookController) GetAll(ctx *fiber.Ctx) error {
	summaries, err := c.service.ListSummaries(ctx.Context())
	if err != nil {
		return serverutils.NewPersistenceError("Failed to get notebooks", err)
	}

	return ctx.JSON(summaries)
}

func (c *notebookController) Show(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	notebook, err := c.service.GetNotebook(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return serverutils.NewNotFoundError("Notebook not found")
		}
		return serverutils.NewPersistenceError("Failed to get notebook", err)
	}

	return ctx.JSON(notebook)
}
