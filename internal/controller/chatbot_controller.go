package controller

import (
	"context"
	"os"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/pkg/serverutils"
	"examcraft-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	logger  logger.ILogger
}

func NewChatbotController(service service.IChatbotService, log logger.ILogger) IChatbotController {
	return &chatbotController{service: service, logger: log}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Get("/ws", c.ServeWs)

	sessions := h.Group("/sessions", serverutils.JwtMiddleware)
	sessions.Post("/", c.CreateSession)
	sessions.Get("/", c.ListSessions)
	sessions.Get("/:id/messages", c.GetMessages)
	sessions.Delete("/:id", c.DeleteSession)
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	var req dto.CreateChatSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *chatbotController) ListSessions(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	res, err := c.service.ListSessions(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Sessions", res))
}

func (c *chatbotController) GetMessages(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	res, err := c.service.GetMessages(ctx.Context(), userId, sessionId)
	if err != nil {
		if err.Error() == "chat session not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Messages", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	userId := localsUserId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	if err := c.service.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		if err.Error() == "chat session not found" {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}

// ServeWs upgrades to a websocket and serves tutor turns over it. Each
// inbound frame is one turn request; the reply is a meta frame, streamed
// token frames, then a done or error frame.
func (c *chatbotController) ServeWs(ctx *fiber.Ctx) error {
	userId, err := wsUserFromToken(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		turnCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for {
			var req dto.ChatTurnRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if err := serverutils.ValidateRequest(req); err != nil {
				conn.WriteJSON(dto.ChatStreamEvent{Type: dto.ChatEventError, Message: "Invalid turn request"})
				continue
			}

			emit := func(event dto.ChatStreamEvent) error {
				return conn.WriteJSON(event)
			}
			if err := c.service.StreamTurn(turnCtx, userId, &req, emit); err != nil {
				c.logger.Error("ChatbotController", "Turn failed", map[string]interface{}{
					"user_id":    userId,
					"session_id": req.SessionId,
					"error":      err.Error(),
				})
			}
		}
	})(ctx)
}

// wsUserFromToken authenticates a websocket handshake. Browsers cannot set
// headers on upgrade requests, so the token may come in as a query param.
func wsUserFromToken(ctx *fiber.Ctx) (uuid.UUID, error) {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return uuid.Parse(userIdStr)
}
