package implementation

import (
	"context"
	"errors"
	"time"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/mapper"
	"examcraft-be/internal/model"
	"examcraft-be/internal/repository/contract"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entity.User) error {
	modelUser := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(modelUser).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(modelUser)
	return nil
}

func (r *UserRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var modelUser model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelUser), nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	var modelUsers []*model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&modelUsers).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelUsers), nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.User{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Token implementations

func (r *UserRepositoryImpl) CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error {
	m := r.mapper.PasswordResetTokenToModel(token)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *UserRepositoryImpl) FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error) {
	var m model.PasswordResetToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PasswordResetTokenToEntity(&m), nil
}

func (r *UserRepositoryImpl) MarkTokenUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).Where("id = ?", id).Update("used", true).Error
}

func (r *UserRepositoryImpl) CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error {
	m := r.mapper.EmailVerificationTokenToModel(token)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *UserRepositoryImpl) FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error) {
	var m model.EmailVerificationToken
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EmailVerificationTokenToEntity(&m), nil
}

func (r *UserRepositoryImpl) DeleteEmailVerificationToken(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.EmailVerificationToken{}, id).Error
}

func (r *UserRepositoryImpl) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	m := r.mapper.RefreshTokenToModel(token)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *UserRepositoryImpl) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&model.UserRefreshToken{}).Where("token_hash = ?", tokenHash).Update("revoked", true).Error
}

func (r *UserRepositoryImpl) GetByIdWithAvatar(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var result struct {
		model.User
		AvatarUrlResolved *string `gorm:"column:avatar_url_resolved"`
	}

	err := r.db.WithContext(ctx).Table("users").
		Select("users.*, COALESCE(users.avatar_url, user_providers.avatar_url) as avatar_url_resolved").
		Joins("LEFT JOIN user_providers ON users.id = user_providers.user_id").
		Where("users.id = ?", id).
		Order("user_providers.created_at DESC").
		Limit(1).
		Scan(&result).Error

	if err != nil {
		return nil, err
	}
	if result.Id == uuid.Nil {
		return nil, nil
	}

	user := r.mapper.ToEntity(&result.User)
	if result.AvatarUrlResolved != nil {
		user.AvatarURL = result.AvatarUrlResolved
	}

	return user, nil
}

func (r *UserRepositoryImpl) ActivateUser(ctx context.Context, userId uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).
		Updates(map[string]interface{}{
			"status":            "active",
			"email_verified":    true,
			"email_verified_at": now,
		}).Error
}

func (r *UserRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("status", status).Error
}

func (r *UserRepositoryImpl) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).Update("password_hash", hash).Error
}

func (r *UserRepositoryImpl) SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error {
	m := r.mapper.ProviderToModel(provider)
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO user_providers (id, user_id, provider_name, provider_user_id, avatar_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_name, provider_user_id)
		DO UPDATE SET avatar_url = EXCLUDED.avatar_url
	`, m.Id, m.UserId, m.ProviderName, m.ProviderUserId, m.AvatarURL, m.CreatedAt).Error
}

// ConsumeChatQuota takes one turn from the user's daily allowance. The whole
// check-reset-increment runs as a single UPDATE so two concurrent turns at
// the last slot cannot both succeed. A limit of -1 is unlimited; usage is
// still counted for reporting. A limit of 0 admits nothing, including on the
// first turn of a new day. The date comparison pins the reset to calendar-day
// boundaries in UTC.
func (r *UserRepositoryImpl) ConsumeChatQuota(ctx context.Context, userId uuid.UUID, limit int) (*contract.QuotaResult, error) {
	var row struct {
		ChatDailyUsage          int
		ChatDailyUsageLastReset time.Time
	}

	res := r.db.WithContext(ctx).Raw(`
		UPDATE users SET
			chat_daily_usage = CASE
				WHEN chat_daily_usage_last_reset::date < (NOW() AT TIME ZONE 'UTC')::date THEN 1
				ELSE chat_daily_usage + 1
			END,
			chat_daily_usage_last_reset = CASE
				WHEN chat_daily_usage_last_reset::date < (NOW() AT TIME ZONE 'UTC')::date THEN NOW()
				ELSE chat_daily_usage_last_reset
			END
		WHERE id = ?
		  AND (? < 0
			OR (? > 0 AND chat_daily_usage_last_reset::date < (NOW() AT TIME ZONE 'UTC')::date)
			OR chat_daily_usage < ?)
		RETURNING chat_daily_usage, chat_daily_usage_last_reset
	`, userId, limit, limit, limit).Scan(&row)

	if res.Error != nil {
		return nil, res.Error
	}

	resetsAt := nextUtcMidnight()
	if res.RowsAffected == 0 {
		// Either the user is gone or the quota is spent. Read back the
		// current usage so the caller can report it.
		var m model.User
		if err := r.db.WithContext(ctx).Select("chat_daily_usage").First(&m, "id = ?", userId).Error; err != nil {
			return nil, err
		}
		return &contract.QuotaResult{
			Allowed:   false,
			Limit:     limit,
			Used:      m.ChatDailyUsage,
			Remaining: 0,
			ResetsAt:  resetsAt,
		}, nil
	}

	remaining := -1
	if limit >= 0 {
		remaining = limit - row.ChatDailyUsage
		if remaining < 0 {
			remaining = 0
		}
	}
	return &contract.QuotaResult{
		Allowed:   true,
		Limit:     limit,
		Used:      row.ChatDailyUsage,
		Remaining: remaining,
		ResetsAt:  resetsAt,
	}, nil
}

func (r *UserRepositoryImpl) PeekChatQuota(ctx context.Context, userId uuid.UUID, limit int) (*contract.QuotaResult, error) {
	var m model.User
	if err := r.db.WithContext(ctx).Select("chat_daily_usage", "chat_daily_usage_last_reset").First(&m, "id = ?", userId).Error; err != nil {
		return nil, err
	}

	used := m.ChatDailyUsage
	if m.ChatDailyUsageLastReset.UTC().Truncate(24 * time.Hour).Before(time.Now().UTC().Truncate(24 * time.Hour)) {
		used = 0
	}

	remaining := -1
	allowed := true
	if limit >= 0 {
		remaining = limit - used
		if remaining < 0 {
			remaining = 0
		}
		allowed = used < limit
	}
	return &contract.QuotaResult{
		Allowed:   allowed,
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
		ResetsAt:  nextUtcMidnight(),
	}, nil
}

func (r *UserRepositoryImpl) SetChatLimitOverride(ctx context.Context, userId uuid.UUID, limit *int) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).
		Update("chat_daily_limit_override", limit).Error
}

func (r *UserRepositoryImpl) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*entity.User, error) {
	var models []*model.User
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("email ILIKE ? OR full_name ILIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *UserRepositoryImpl) GetUserGrowth(ctx context.Context) ([]map[string]interface{}, error) {
	var results []map[string]interface{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT to_char(created_at, 'YYYY-MM-DD') as date, COUNT(*) as count
		FROM users
		WHERE created_at > NOW() - INTERVAL '30 days'
		GROUP BY date
		ORDER BY date ASC
	`).Scan(&results).Error
	return results, err
}

func (r *UserRepositoryImpl) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func nextUtcMidnight() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
