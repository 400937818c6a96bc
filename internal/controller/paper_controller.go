package controller

import (
	"context"
	"strconv"
	"strings"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaperController interface {
	RegisterRoutes(r fiber.Router)
	CreateBlueprint(ctx *fiber.Ctx) error
	ListBlueprints(ctx *fiber.Ctx) error
	GeneratePaper(ctx *fiber.Ctx) error
	GetPaper(ctx *fiber.Ctx) error
	ListPapers(ctx *fiber.Ctx) error
	DeletePaper(ctx *fiber.Ctx) error
	ApprovePaper(ctx *fiber.Ctx) error
	PublishPaper(ctx *fiber.Ctx) error
	UnpublishPaper(ctx *fiber.Ctx) error
	ReviseQuestion(ctx *fiber.Ctx) error
	RegenerateAll(ctx *fiber.Ctx) error
	RegenerateFailedSlots(ctx *fiber.Ctx) error
	GetRevisionHistory(ctx *fiber.Ctx) error
}

type paperController struct {
	service         service.IPaperService
	revisionService service.IRevisionService
}

func NewPaperController(service service.IPaperService, revisionService service.IRevisionService) IPaperController {
	return &paperController{service: service, revisionService: revisionService}
}

func (c *paperController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/papers", serverutils.JwtMiddleware, serverutils.RequireRole("instructor", "admin"))

	h.Post("/blueprints", c.CreateBlueprint)
	h.Get("/blueprints", c.ListBlueprints)

	h.Post("/generate", c.GeneratePaper)
	h.Get("/", c.ListPapers)
	h.Get("/:id", c.GetPaper)
	h.Delete("/:id", c.DeletePaper)

	h.Post("/:id/approve", c.ApprovePaper)
	h.Post("/:id/publish", c.PublishPaper)
	h.Post("/:id/unpublish", c.UnpublishPaper)

	h.Post("/:id/revise", c.ReviseQuestion)
	h.Post("/:id/regenerate", c.RegenerateAll)
	h.Post("/:id/regenerate-failed", c.RegenerateFailedSlots)
	h.Get("/:id/revisions", c.GetRevisionHistory)
}

func (c *paperController) CreateBlueprint(ctx *fiber.Ctx) error {
	var req dto.CreateBlueprintRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateBlueprint(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Blueprint created", res))
}

func (c *paperController) ListBlueprints(ctx *fiber.Ctx) error {
	res, err := c.service.ListBlueprints(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Blueprints", res))
}

// GeneratePaper runs the full retrieval and generation pipeline
// synchronously; large blueprints take a while.
func (c *paperController) GeneratePaper(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	var req dto.GeneratePaperRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.GeneratePaper(ctx.Context(), userId, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponse(422, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Paper generated", res))
}

func (c *paperController) GetPaper(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	res, err := c.service.GetPaper(ctx.Context(), id)
	if err != nil {
		if err.Error() == "paper not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Paper", res))
}

func (c *paperController) ListPapers(ctx *fiber.Ctx) error {
	res, err := c.service.ListPapers(ctx.Context(), ctx.Query("status"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Papers", res))
}

func (c *paperController) DeletePaper(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	if err := c.service.DeletePaper(ctx.Context(), id); err != nil {
		if err.Error() == "paper not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Paper deleted", nil))
}

func (c *paperController) ApprovePaper(ctx *fiber.Ctx) error {
	return c.transition(ctx, c.service.ApprovePaper, "Paper approved")
}

func (c *paperController) PublishPaper(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	if err := c.service.PublishPaper(ctx.Context(), id, localsUserId(ctx)); err != nil {
		return c.transitionError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Paper published", nil))
}

func (c *paperController) UnpublishPaper(ctx *fiber.Ctx) error {
	return c.transition(ctx, c.service.UnpublishPaper, "Paper unpublished")
}

func (c *paperController) ReviseQuestion(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	paperId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	var req dto.RevisePaperRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.revisionService.ReviseQuestion(ctx.Context(), userId, paperId, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponse(422, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Question revised", res))
}

func (c *paperController) RegenerateAll(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	paperId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	var req dto.RegenerateAllRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.revisionService.RegenerateAll(ctx.Context(), userId, paperId, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponse(422, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Paper regenerated", res))
}

func (c *paperController) RegenerateFailedSlots(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	paperId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	var req dto.RegenerateSlotsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.revisionService.RegenerateFailedSlots(ctx.Context(), userId, paperId, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponse(422, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Failed slots regenerated", res))
}

func (c *paperController) GetRevisionHistory(ctx *fiber.Ctx) error {
	paperId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	questionNumber := 0
	if q := ctx.Query("question"); q != "" {
		questionNumber, err = strconv.Atoi(q)
		if err != nil || questionNumber < 1 {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid question number"))
		}
	}

	res, err := c.revisionService.GetHistory(ctx.Context(), paperId, questionNumber)
	if err != nil {
		if err.Error() == "paper not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Revision history", res))
}

func (c *paperController) transition(ctx *fiber.Ctx, op func(context.Context, uuid.UUID) error, message string) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid paper ID"))
	}

	if err := op(ctx.Context(), id); err != nil {
		return c.transitionError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any](message, nil))
}

func (c *paperController) transitionError(ctx *fiber.Ctx, err error) error {
	if err.Error() == "paper not found" {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
}
