package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/valai/valai-api/internal/chat"
	"github.com/valai/valai-api/internal/circuitbreaker"
	"github.com/valai/valai-api/internal/middleware"
	"github.com/valai/valai-api/internal/models"
	"github.com/valai/valai-api/internal/quota"
	"github.com/valai/valai-api/internal/ratelimit"
)

type ChatHandler struct {
	service    *chat.Service
	ledger     *quota.Ledger
	tierLimits map[models.SubscriptionTier]int
}

func NewChatHandler(service *chat.Service, ledger *quota.Ledger, tierLimits map[models.SubscriptionTier]int) *ChatHandler {
	return &ChatHandler{
		service:    service,
		ledger:     ledger,
		tierLimits: tierLimits,
	}
}

func setRateLimitHeaders(c *gin.Context, rl ratelimit.Result) {
	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", ratelimit.Requests))
	c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.Remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Unix()+int64(rl.ResetIn)))
}

// POST /api/chat/completions
func (h *ChatHandler) Completions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	resp, rl, err := h.service.Complete(c.Request.Context(), user, &req)

	var rateErr *chat.RateLimitError
	var quotaErr *quota.QuotaExceededError
	var upstreamErr *chat.UpstreamError

	switch {
	case err == nil:
		setRateLimitHeaders(c, rl)
		c.JSON(http.StatusOK, gin.H{
			"message": resp.Message,
			"usage": gin.H{
				"tokens_used_this_request": resp.TokensUsed,
				"tokens_remaining":         resp.TokensRemaining,
				"tokens_limit":             resp.TokensLimit,
			},
		})

	case errors.As(err, &rateErr):
		setRateLimitHeaders(c, rl)
		c.Header("Retry-After", fmt.Sprintf("%d", rateErr.RetryIn))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     err.Error(),
			"retry_after": rateErr.RetryIn,
		})

	case errors.As(err, &quotaErr):
		setRateLimitHeaders(c, rl)
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":        "quota_exceeded",
			"message":      err.Error(),
			"tokens_used":  quotaErr.Used,
			"tokens_limit": quotaErr.Limit,
			"resets_at":    quotaErr.ResetDate,
			"upgrade_url":  "/pricing",
		})

	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Chat provider temporarily unavailable",
		})

	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "Request to chat provider timed out",
		})

	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Chat provider request failed",
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// GET /api/chat/usage
func (h *ChatHandler) Usage(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	stats, err := h.ledger.UsageStats(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GET /api/chat/usage/history
func (h *ChatHandler) UsageHistory(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	rows, err := h.ledger.History(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": rows})
}

// GET /api/chat/limits - public, for displaying limits in the UI
func (h *ChatHandler) Limits(c *gin.Context) {
	quotas := make(map[models.SubscriptionTier]int, len(h.tierLimits))
	for tier, limit := range h.tierLimits {
		quotas[tier] = limit
	}

	c.JSON(http.StatusOK, gin.H{
		"rate_limit": gin.H{
			"requests":       ratelimit.Requests,
			"window_seconds": ratelimit.WindowSeconds,
		},
		"max_tokens_per_request": quota.MaxTokensPerRequest,
		"monthly_quotas":         quotas,
	})
}
