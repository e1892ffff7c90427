package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/valai/valai-api/internal/circuitbreaker"
	"github.com/valai/valai-api/internal/models"
	"github.com/valai/valai-api/internal/quota"
	"github.com/valai/valai-api/internal/ratelimit"
)

// The user is over the request rate for the window
type RateLimitError struct {
	RetryIn int // seconds
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, try again in %d seconds", e.RetryIn)
}

type Request struct {
	Messages    []Message    `json:"messages"`
	PlayerStats *PlayerStats `json:"player_stats,omitempty"`
	// Clamped server-side; the client cannot raise the ceiling
	MaxTokens *int `json:"max_tokens,omitempty"`
}

type Response struct {
	Message         string `json:"message"`
	TokensUsed      int    `json:"tokens_used_this_request"`
	TokensRemaining int    `json:"tokens_remaining"`
	TokensLimit     int    `json:"tokens_limit"`
}

// Service runs the guarded completion pipeline: rate limit, quota check,
// clamp, upstream dispatch, settlement. The upstream call is bracketed -
// nothing is charged unless the provider reports usage, and the charge is
// always the provider's number, never the client's.
type Service struct {
	limiter ratelimit.Limiter
	ledger  *quota.Ledger
	gateway Gateway
	breaker *circuitbreaker.CircuitBreaker
	logger  zerolog.Logger
}

func NewService(limiter ratelimit.Limiter, ledger *quota.Ledger, gateway Gateway, breaker *circuitbreaker.CircuitBreaker, logger zerolog.Logger) *Service {
	return &Service{
		limiter: limiter,
		ledger:  ledger,
		gateway: gateway,
		breaker: breaker,
		logger:  logger.With().Str("component", "chat").Logger(),
	}
}

// Runs one completion for the user. The returned ratelimit.Result is
// valid whenever err is nil or a *RateLimitError, so the caller can set
// rate limit headers on every outcome that got past the limiter backend.
func (s *Service) Complete(ctx context.Context, user *models.User, req *Request) (*Response, ratelimit.Result, error) {
	// Rate limit before anything expensive. A backend failure here is a
	// request failure, never an implicit allow.
	rl, err := s.limiter.CheckAndRecord(ctx, user.ID.String())
	if err != nil {
		return nil, rl, err
	}
	if !rl.Allowed {
		return nil, rl, &RateLimitError{RetryIn: rl.ResetIn}
	}

	// Quota pre-flight with the clamped ceiling as the cost estimate. An
	// insufficient-estimate signal is advisory only: the user still has
	// budget left and the actual cost is unknown until the provider
	// reports it, so the request proceeds.
	maxTokens := quota.ClampMaxTokens(req.MaxTokens)
	remaining, _, limit, err := s.ledger.CheckSufficient(ctx, user, maxTokens)
	var insufficient *quota.InsufficientQuotaError
	if errors.As(err, &insufficient) {
		s.logger.Warn().
			Str("user_id", user.ID.String()).
			Int("remaining", remaining).
			Int("estimated", maxTokens).
			Msg("request may exceed remaining quota")
	} else if err != nil {
		return nil, rl, err
	}

	messages := make([]Message, 0, len(req.Messages)+1)
	messages = append(messages, Message{
		Role:    "system",
		Content: systemPrompt + buildStatsContext(req.PlayerStats),
	})
	messages = append(messages, req.Messages...)

	// Dispatch. On any upstream failure (error, timeout, cancellation,
	// open breaker) the pipeline ends here and nothing is deducted.
	var result *CompletionResult
	err = s.breaker.Call(func() error {
		var callErr error
		result, callErr = s.gateway.Complete(ctx, messages, maxTokens)
		return callErr
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", user.ID.String()).
			Msg("upstream completion failed")
		return nil, rl, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Int("total_tokens", result.Usage.TotalTokens).
		Msg("completion settled")

	// Settle against the ledger with the provider-reported total
	usage, err := s.ledger.DeductAtomic(ctx, user.ID, result.Usage.TotalTokens)
	if err != nil {
		return nil, rl, err
	}

	remaining = limit - usage.TokensUsed
	if remaining < 0 {
		remaining = 0
	}

	return &Response{
		Message:         result.Message,
		TokensUsed:      result.Usage.TotalTokens,
		TokensRemaining: remaining,
		TokensLimit:     limit,
	}, rl, nil
}
