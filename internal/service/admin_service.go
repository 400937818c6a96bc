// FILE: internal/service/admin_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/rag/access"

	"github.com/google/uuid"
)

type IAdminService interface {
	GetDashboardStats(ctx context.Context) (*dto.DashboardStatsResponse, error)
	GetUserGrowth(ctx context.Context) ([]*dto.UserGrowthStats, error)

	// User management
	GetAllUsers(ctx context.Context, req *dto.AdminUserListRequest) (*dto.PaginatedResponse[*dto.UserListResponse], error)
	GetUserDetail(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateUserStatus(ctx context.Context, userId uuid.UUID, status string) error
	UpdateUserRole(ctx context.Context, userId uuid.UUID, role string) error

	// Chat quota administration
	GetChatUsage(ctx context.Context, page, limit int) ([]*dto.ChatUsageResponse, error)
	OverrideChatQuota(ctx context.Context, userId uuid.UUID, req *dto.OverrideChatQuotaRequest) error
	ClearChatQuotaOverride(ctx context.Context, userId uuid.UUID) error

	// System logs
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)

	// Transactions
	GetTransactions(ctx context.Context, page, limit int, status string) ([]*dto.TransactionListResponse, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	verifier   *access.Verifier
	logger     logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	verifier *access.Verifier,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		verifier:   verifier,
		logger:     log,
	}
}

// --- Dashboard ---

func (s *adminService) GetDashboardStats(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stats := &dto.DashboardStatsResponse{}
	var err error

	if stats.TotalUsers, err = uow.UserRepository().Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalStudents, err = uow.UserRepository().CountByRole(ctx, string(entity.UserRoleStudent)); err != nil {
		return nil, err
	}
	if stats.TotalInstructors, err = uow.UserRepository().CountByRole(ctx, string(entity.UserRoleInstructor)); err != nil {
		return nil, err
	}
	if stats.TotalDocuments, err = uow.SourceDocumentRepository().Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalChunks, err = uow.ChunkRepository().Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalPapers, err = uow.PaperRepository().Count(ctx); err != nil {
		return nil, err
	}
	if stats.PublishedPapers, err = uow.PaperRepository().Count(ctx, specification.ByPaperStatus{Status: string(flow.PaperPublished)}); err != nil {
		return nil, err
	}
	if stats.TotalAttempts, err = uow.ExamAttemptRepository().Count(ctx); err != nil {
		return nil, err
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	if stats.AttemptsToday, err = uow.ExamAttemptRepository().CountSince(ctx, startOfDay); err != nil {
		return nil, err
	}
	if stats.ChatTurnsToday, err = uow.ChatMessageRepository().CountSince(ctx, startOfDay); err != nil {
		return nil, err
	}
	if stats.ActiveSubscribers, err = uow.SubscriptionRepository().CountActiveSubscribers(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *adminService) GetUserGrowth(ctx context.Context) ([]*dto.UserGrowthStats, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.UserRepository().GetUserGrowth(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.UserGrowthStats, 0, len(rows))
	for _, row := range rows {
		stat := &dto.UserGrowthStats{}
		if d, ok := row["date"].(string); ok {
			stat.Date = d
		}
		switch c := row["count"].(type) {
		case int64:
			stat.Count = int(c)
		case float64:
			stat.Count = int(c)
		}
		out = append(out, stat)
	}
	return out, nil
}

// --- User management ---

func (s *adminService) GetAllUsers(ctx context.Context, req *dto.AdminUserListRequest) (*dto.PaginatedResponse[*dto.UserListResponse], error) {
	page, limit := normalizePage(req.Page, req.Limit)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var (
		users []*entity.User
		err   error
	)
	if req.Search != "" {
		users, err = uow.UserRepository().SearchUsers(ctx, req.Search, limit, (page-1)*limit)
		if err != nil {
			return nil, err
		}
	} else {
		specs := []specification.Specification{
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
		}
		if req.Role != "" {
			specs = append(specs, specification.Filter("role", req.Role))
		}
		if req.Status != "" {
			specs = append(specs, specification.Filter("status", req.Status))
		}
		users, err = uow.UserRepository().FindAll(ctx, specs...)
		if err != nil {
			return nil, err
		}
	}

	var countSpecs []specification.Specification
	if req.Role != "" {
		countSpecs = append(countSpecs, specification.Filter("role", req.Role))
	}
	if req.Status != "" {
		countSpecs = append(countSpecs, specification.Filter("status", req.Status))
	}
	total, err := uow.UserRepository().Count(ctx, countSpecs...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.UserListResponse, 0, len(users))
	for _, u := range users {
		items = append(items, &dto.UserListResponse{
			Id:        u.Id,
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      string(u.Role),
			Status:    string(u.Status),
			CreatedAt: u.CreatedAt,
		})
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &dto.PaginatedResponse[*dto.UserListResponse]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *adminService) GetUserDetail(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().GetByIdWithAvatar(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	limit, err := s.verifier.EffectiveLimit(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	return toUserProfileResponse(user, limit), nil
}

func (s *adminService) UpdateUserStatus(ctx context.Context, userId uuid.UUID, status string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if err := uow.UserRepository().UpdateStatus(ctx, userId, status); err != nil {
		return err
	}
	s.logger.Info("admin", "user status changed", map[string]interface{}{
		"user_id": userId.String(),
		"status":  status,
	})
	return nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, userId uuid.UUID, role string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if err := uow.UserRepository().UpdateRole(ctx, userId, role); err != nil {
		return err
	}
	s.logger.Info("admin", "user role changed", map[string]interface{}{
		"user_id": userId.String(),
		"role":    role,
	})
	return nil
}

// --- Chat quota administration ---

func (s *adminService) GetChatUsage(ctx context.Context, page, limit int) ([]*dto.ChatUsageResponse, error) {
	page, limit = normalizePage(page, limit)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "chat_daily_usage", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ChatUsageResponse, 0, len(users))
	for _, u := range users {
		effectiveLimit, err := s.verifier.EffectiveLimit(ctx, uow, u.Id)
		if err != nil {
			return nil, err
		}

		planName := "free"
		sub, err := uow.SubscriptionRepository().FindActiveByUserId(ctx, u.Id)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: sub.PlanId})
			if err != nil {
				return nil, err
			}
			if plan != nil {
				planName = plan.Name
			}
		}

		out = append(out, &dto.ChatUsageResponse{
			UserId:         u.Id,
			Email:          u.Email,
			FullName:       u.FullName,
			PlanName:       planName,
			ChatDailyUsage: u.ChatDailyUsage,
			ChatDailyLimit: effectiveLimit,
			LastReset:      u.ChatDailyUsageLastReset,
			HasOverride:    u.ChatDailyLimitOverride != nil,
		})
	}
	return out, nil
}

func (s *adminService) OverrideChatQuota(ctx context.Context, userId uuid.UUID, req *dto.OverrideChatQuotaRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	limit := req.Limit
	if err := uow.UserRepository().SetChatLimitOverride(ctx, userId, &limit); err != nil {
		return err
	}
	s.logger.Info("admin", "chat quota override set", map[string]interface{}{
		"user_id": userId.String(),
		"limit":   limit,
	})
	return nil
}

func (s *adminService) ClearChatQuotaOverride(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UserRepository().SetChatLimitOverride(ctx, userId, nil); err != nil {
		return err
	}
	s.logger.Info("admin", "chat quota override cleared", map[string]interface{}{
		"user_id": userId.String(),
	})
	return nil
}

// --- System logs ---

func (s *adminService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error) {
	page, limit = normalizePage(page, limit)

	entries, err := s.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLogListResponse(e))
	}
	return out, nil
}

func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error) {
	entry, err := s.logger.GetLogById(logId)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("log entry not found")
	}

	return &dto.LogDetailResponse{
		LogListResponse: *toLogListResponse(*entry),
		Fields:          entry.Details,
	}, nil
}

// --- Transactions ---

func (s *adminService) GetTransactions(ctx context.Context, page, limit int, status string) ([]*dto.TransactionListResponse, error) {
	page, limit = normalizePage(page, limit)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	transactions, err := uow.SubscriptionRepository().GetTransactions(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.TransactionListResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, &dto.TransactionListResponse{
			Id:              t.Id,
			UserId:          t.UserId,
			UserEmail:       t.UserEmail,
			PlanName:        t.PlanName,
			Amount:          t.Amount,
			Status:          t.Status,
			PaymentStatus:   t.PaymentStatus,
			TransactionDate: t.CreatedAt,
			MidtransOrderId: t.MidtransOrderId,
		})
	}
	return out, nil
}

// --- Helpers ---

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func toLogListResponse(e logger.LogEntry) *dto.LogListResponse {
	resp := &dto.LogListResponse{
		Id:      e.Id,
		Level:   e.Level,
		Message: e.Message,
		Caller:  e.Module,
	}
	if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		resp.Timestamp = ts
	}
	return resp
}
