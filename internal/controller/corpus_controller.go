package controller

import (
	"examcraft-be/internal/dto"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICorpusController interface {
	RegisterRoutes(r fiber.Router)
	UploadDocument(ctx *fiber.Ctx) error
	ListDocuments(ctx *fiber.Ctx) error
	GetDocument(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error
	ReingestDocument(ctx *fiber.Ctx) error
	PreviewRetrieval(ctx *fiber.Ctx) error
}

type corpusController struct {
	service service.ICorpusService
}

func NewCorpusController(service service.ICorpusService) ICorpusController {
	return &corpusController{service: service}
}

func (c *corpusController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/corpus", serverutils.JwtMiddleware, serverutils.RequireRole("instructor", "admin"))
	h.Post("/documents", c.UploadDocument)
	h.Get("/documents", c.ListDocuments)
	h.Get("/documents/:id", c.GetDocument)
	h.Delete("/documents/:id", c.DeleteDocument)
	h.Post("/documents/:id/reingest", c.ReingestDocument)
	h.Post("/retrieval/preview", c.PreviewRetrieval)
}

func (c *corpusController) UploadDocument(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	var req dto.UploadDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid form fields"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "PDF file is required"))
	}

	res, err := c.service.UploadDocument(ctx.Context(), userId, &req, file)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}

func (c *corpusController) ListDocuments(ctx *fiber.Ctx) error {
	res, err := c.service.ListDocuments(ctx.Context(), ctx.Query("source_type"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Documents", res))
}

func (c *corpusController) GetDocument(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid document ID"))
	}

	res, err := c.service.GetDocument(ctx.Context(), id)
	if err != nil {
		if err.Error() == "document not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Document", res))
}

func (c *corpusController) DeleteDocument(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid document ID"))
	}

	if err := c.service.DeleteDocument(ctx.Context(), id); err != nil {
		if err.Error() == "document not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Document deleted", nil))
}

func (c *corpusController) ReingestDocument(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid document ID"))
	}

	if err := c.service.ReingestDocument(ctx.Context(), id); err != nil {
		if err.Error() == "document not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Document queued for re-ingestion", nil))
}

func (c *corpusController) PreviewRetrieval(ctx *fiber.Ctx) error {
	var req dto.RetrievalPreviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.PreviewRetrieval(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Retrieval preview", res))
}
