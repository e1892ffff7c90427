package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/valai/valai-api/internal/models"
	"github.com/valai/valai-api/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenUsageRepository struct {
	db *storage.SQLite
}

func NewTokenUsageRepository(db *storage.SQLite) *TokenUsageRepository {
	return &TokenUsageRepository{db: db}
}

// Retrieves the usage row for one user and period, nil if absent
func (r *TokenUsageRepository) FindByPeriod(ctx context.Context, userID uuid.UUID, year, month int) (*models.TokenUsage, error) {
	var usage models.TokenUsage
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		First(&usage).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &usage, err
}

// Fetches the usage row for the period, creating a zeroed one if missing.
// When two requests race to create the first row of the month, the unique
// index rejects the loser, which then reads back the winner.
func (r *TokenUsageRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, year, month int) (*models.TokenUsage, error) {
	usage, err := r.FindByPeriod(ctx, userID, year, month)
	if err != nil || usage != nil {
		return usage, err
	}

	usage = &models.TokenUsage{
		UserID: userID,
		Year:   year,
		Month:  month,
	}

	createErr := r.db.DB.WithContext(ctx).Create(usage).Error
	if createErr == nil {
		return usage, nil
	}

	// Lost the creation race - the winner's row must exist now
	usage, err = r.FindByPeriod(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	if usage == nil {
		return nil, createErr
	}

	return usage, nil
}

// Adds tokens and one request to the period row inside a single
// transaction, locking the row so concurrent deductions serialize instead
// of overwriting each other. The row is created first if this is the
// user's first settlement of the month.
func (r *TokenUsageRepository) AddUsage(ctx context.Context, userID uuid.UUID, year, month, tokens int) (*models.TokenUsage, error) {
	var usage models.TokenUsage

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
			First(&usage).Error

		if err == gorm.ErrRecordNotFound {
			usage = models.TokenUsage{
				UserID: userID,
				Year:   year,
				Month:  month,
			}
			if err := tx.Create(&usage).Error; err != nil {
				// Concurrent creator won; lock its row instead
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
					First(&usage).Error; err != nil {
					return err
				}
			}
		} else if err != nil {
			return err
		}

		return tx.Model(&usage).Updates(map[string]interface{}{
			"tokens_used":   gorm.Expr("tokens_used + ?", tokens),
			"request_count": gorm.Expr("request_count + ?", 1),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	// Re-read for the post-increment counters
	return r.FindByPeriod(ctx, userID, year, month)
}

// Retrieves all usage rows for a user, newest period first
func (r *TokenUsageRepository) History(ctx context.Context, userID uuid.UUID) ([]models.TokenUsage, error) {
	var rows []models.TokenUsage
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("year DESC, month DESC").
		Find(&rows).Error

	return rows, err
}
