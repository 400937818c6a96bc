package controller

import (
	"examcraft-be/internal/dto"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEvaluationController interface {
	RegisterRoutes(r fiber.Router)
	StartEvaluation(ctx *fiber.Ctx) error
	GetRun(ctx *fiber.Ctx) error
	GetLatest(ctx *fiber.Ctx) error
	ListRuns(ctx *fiber.Ctx) error
}

type evaluationController struct {
	service service.IEvaluationService
}

func NewEvaluationController(service service.IEvaluationService) IEvaluationController {
	return &evaluationController{service: service}
}

func (c *evaluationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/evaluations", serverutils.JwtMiddleware, serverutils.RequireRole("instructor", "admin"))
	h.Post("/", c.StartEvaluation)
	h.Get("/", c.ListRuns)
	h.Get("/latest", c.GetLatest)
	h.Get("/:id", c.GetRun)
}

func (c *evaluationController) StartEvaluation(ctx *fiber.Ctx) error {
	var req dto.StartEvaluationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartEvaluation(ctx.Context(), localsUserId(ctx), &req)
	if err != nil {
		if err.Error() == "paper not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Evaluation started", res))
}

func (c *evaluationController) GetRun(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid run ID"))
	}

	res, err := c.service.GetRun(ctx.Context(), id)
	if err != nil {
		if err.Error() == "evaluation run not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Evaluation run", res))
}

func (c *evaluationController) GetLatest(ctx *fiber.Ctx) error {
	target := ctx.Query("target", "paper")

	res, err := c.service.GetLatest(ctx.Context(), target)
	if err != nil {
		if err.Error() == "evaluation run not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Latest evaluation run", res))
}

func (c *evaluationController) ListRuns(ctx *fiber.Ctx) error {
	res, err := c.service.ListRuns(ctx.Context(), ctx.Query("target"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Evaluation runs", res))
}
