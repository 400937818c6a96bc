package controller

import (
	"strings"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAttemptController interface {
	RegisterRoutes(r fiber.Router)
	StartAttempt(ctx *fiber.Ctx) error
	GetAttempt(ctx *fiber.Ctx) error
	SubmitAttempt(ctx *fiber.Ctx) error
	GetResult(ctx *fiber.Ctx) error
	ListAttempts(ctx *fiber.Ctx) error
}

type attemptController struct {
	service service.IAttemptService
}

func NewAttemptController(service service.IAttemptService) IAttemptController {
	return &attemptController{service: service}
}

func (c *attemptController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/attempts", serverutils.JwtMiddleware, serverutils.RequireRole("student"))
	h.Post("/", c.StartAttempt)
	h.Get("/", c.ListAttempts)
	h.Get("/:id", c.GetAttempt)
	h.Post("/:id/submit", c.SubmitAttempt)
	h.Get("/:id/result", c.GetResult)
}

func (c *attemptController) StartAttempt(ctx *fiber.Ctx) error {
	studentId := localsUserId(ctx)

	var req dto.StartAttemptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartAttempt(ctx.Context(), studentId, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Attempt started", res))
}

func (c *attemptController) GetAttempt(ctx *fiber.Ctx) error {
	studentId := localsUserId(ctx)

	attemptId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid attempt ID"))
	}

	res, err := c.service.GetAttempt(ctx.Context(), studentId, attemptId)
	if err != nil {
		if err.Error() == "attempt not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Attempt", res))
}

func (c *attemptController) SubmitAttempt(ctx *fiber.Ctx) error {
	studentId := localsUserId(ctx)

	attemptId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid attempt ID"))
	}

	var req dto.SubmitAttemptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SubmitAttempt(ctx.Context(), studentId, attemptId, &req); err != nil {
		if err.Error() == "attempt not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Attempt submitted, grading queued", nil))
}

func (c *attemptController) GetResult(ctx *fiber.Ctx) error {
	studentId := localsUserId(ctx)

	attemptId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid attempt ID"))
	}

	res, err := c.service.GetResult(ctx.Context(), studentId, attemptId)
	if err != nil {
		if err.Error() == "attempt not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Attempt result", res))
}

func (c *attemptController) ListAttempts(ctx *fiber.Ctx) error {
	studentId := localsUserId(ctx)

	res, err := c.service.ListAttempts(ctx.Context(), studentId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Attempts", res))
}
