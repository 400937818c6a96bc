package serverutils

import (
	"errors"

	"examcraft-be/internal/dto"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/qschema"
	"examcraft-be/pkg/llm"
	"examcraft-be/pkg/rag/fusion"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses so services
// can return typed errors without knowing about fiber. Quota and state errors
// are user-actionable and never retried; upstream timeouts surface as 504.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var limitErr *dto.LimitExceededError
		if errors.As(err, &limitErr) {
			resp := ErrorResponse(fiber.StatusTooManyRequests, limitErr.Error())
			return ctx.Status(fiber.StatusTooManyRequests).JSON(resp)
		}

		var stateErr *flow.StateTransitionError
		if errors.As(err, &stateErr) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, stateErr.Error()))
		}

		var schemaErr *qschema.ValidationError
		if errors.As(err, &schemaErr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(fiber.StatusUnprocessableEntity, schemaErr.Error()))
		}

		var emptyErr *fusion.EmptyRetrievalError
		if errors.As(err, &emptyErr) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, emptyErr.Error()))
		}

		var timeoutErr *llm.GenerationTimeoutError
		if errors.As(err, &timeoutErr) {
			return ctx.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse(fiber.StatusGatewayTimeout, timeoutErr.Error()))
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, "record not found"))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
