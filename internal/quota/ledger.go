package quota

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valai/valai-api/internal/models"
	"github.com/valai/valai-api/internal/repository"
)

// Ledger tracks per-user monthly token budgets. Reads are cheap and
// lazily create the period row; the only mutation is DeductAtomic, which
// charges the provider-reported cost after a completed upstream call.
type Ledger struct {
	repo   *repository.TokenUsageRepository
	limits map[models.SubscriptionTier]int
	logger zerolog.Logger
	now    func() time.Time
}

func NewLedger(repo *repository.TokenUsageRepository, limits map[models.SubscriptionTier]int, logger zerolog.Logger) *Ledger {
	return &Ledger{
		repo:   repo,
		limits: limits,
		logger: logger.With().Str("component", "quota").Logger(),
		now:    time.Now,
	}
}

// Usage summary for display and API responses
type UsageStats struct {
	TokensUsed      int                     `json:"tokens_used"`
	TokensRemaining int                     `json:"tokens_remaining"`
	TokensLimit     int                     `json:"tokens_limit"`
	RequestCount    int                     `json:"request_count"`
	Tier            models.SubscriptionTier `json:"subscription_tier"`
	Period          string                  `json:"period"`
	ResetsAt        string                  `json:"resets_at"`
	UsagePercentage float64                 `json:"usage_percentage"`
}

func (l *Ledger) limitFor(tier models.SubscriptionTier) int {
	if limit, ok := l.limits[tier]; ok {
		return limit
	}
	return l.limits[models.TierFree]
}

func (l *Ledger) period() (int, int) {
	return PeriodAt(l.now().UTC())
}

func (l *Ledger) resetDate() string {
	return NextResetAt(l.now().UTC()).Format("2006-01-02")
}

// Fetches the usage row for the current period, creating it if absent
func (l *Ledger) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.TokenUsage, error) {
	year, month := l.period()
	return l.repo.GetOrCreate(ctx, userID, year, month)
}

// Read-only pre-flight check. Returns remaining, used and limit for the
// current period, or a QuotaExceededError once the budget is fully spent.
func (l *Ledger) CheckQuota(ctx context.Context, user *models.User) (remaining, used, limit int, err error) {
	usage, err := l.GetOrCreate(ctx, user.ID)
	if err != nil {
		return 0, 0, 0, err
	}

	limit = l.limitFor(user.Tier)
	used = usage.TokensUsed
	remaining = limit - used
	if remaining < 0 {
		remaining = 0
	}

	if remaining == 0 {
		return 0, used, limit, &QuotaExceededError{
			Used:      used,
			Limit:     limit,
			ResetDate: l.resetDate(),
		}
	}

	return remaining, used, limit, nil
}

// Pre-flight for an estimated request cost. Propagates QuotaExceededError
// when the budget is fully spent; returns InsufficientQuotaError when the
// estimate exceeds what is left. The latter is advisory - the true cost is
// only known post-hoc, so callers may still proceed and rely on the atomic
// deduction for the hard limit.
func (l *Ledger) CheckSufficient(ctx context.Context, user *models.User, estimatedTokens int) (remaining, used, limit int, err error) {
	remaining, used, limit, err = l.CheckQuota(ctx, user)
	if err != nil {
		return
	}

	if remaining < estimatedTokens {
		err = &InsufficientQuotaError{Remaining: remaining, Required: estimatedTokens}
	}

	return
}

// Charges actual usage against the current period. Runs as a single
// locked transaction so concurrent settlements for the same user sum
// instead of overwriting each other. The charge always lands, even when
// it pushes the user past the limit - the tokens were already consumed
// and the next CheckQuota blocks further requests.
func (l *Ledger) DeductAtomic(ctx context.Context, userID uuid.UUID, tokensUsed int) (*models.TokenUsage, error) {
	if tokensUsed < 0 {
		return nil, ErrNegativeTokens
	}

	year, month := l.period()
	usage, err := l.repo.AddUsage(ctx, userID, year, month, tokensUsed)
	if err != nil {
		l.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Int("year", year).
			Int("month", month).
			Msg("token deduction failed")
		return nil, err
	}

	l.logger.Info().
		Str("user_id", userID.String()).
		Int("tokens", tokensUsed).
		Int("monthly_total", usage.TokensUsed).
		Msg("tokens deducted")

	return usage, nil
}

// Past and current usage rows for the user, newest first. Old periods are
// never deleted, so this doubles as usage history.
func (l *Ledger) History(ctx context.Context, userID uuid.UUID) ([]models.TokenUsage, error) {
	return l.repo.History(ctx, userID)
}

// Current usage snapshot combining the period row with tier configuration
func (l *Ledger) UsageStats(ctx context.Context, user *models.User) (*UsageStats, error) {
	usage, err := l.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	limit := l.limitFor(user.Tier)
	used := usage.TokensUsed
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	pct := float64(used) / float64(limit) * 100
	pct = math.Round(pct*100) / 100

	return &UsageStats{
		TokensUsed:      used,
		TokensRemaining: remaining,
		TokensLimit:     limit,
		RequestCount:    usage.RequestCount,
		Tier:            user.Tier,
		Period:          usage.Period(),
		ResetsAt:        l.resetDate(),
		UsagePercentage: pct,
	}, nil
}
