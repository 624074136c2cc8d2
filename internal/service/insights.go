package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/ai"
	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/metrics"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/redis"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
)

const (
	defaultInsightPrompt = "give me insights about my expenses"
	maxHistoryMessages   = 10

	systemPrompt = "You are a helpful budgeting coach. Use ONLY the provided spending data. " +
		"If no expenses exist, give general advice. Keep it concise and use bullet points."
)

type InsightRequest struct {
	Prompt    string
	IsDefault bool
	Messages  []ai.Message
}

type InsightResult struct {
	Text       string                `json:"text"`
	Total      decimal.Decimal       `json:"total"`
	Categories []model.CategoryTotal `json:"categories"`
	Remaining  int64                 `json:"remaining"`
	RangeLabel string                `json:"rangeLabel"`
}

// InsightService summarizes a user's spending and asks the AI provider
// for advice grounded in that summary. Custom prompts count against a
// daily per-user quota kept in Redis; the default summary does not.
type InsightService struct {
	expenseRepo repository.ExpenseRepository
	aiClient    *ai.Client
	rdb         *redis.Client
	metrics     *metrics.Collector
	dailyLimit  int64
	now         func() time.Time
}

func NewInsightService(
	expenseRepo repository.ExpenseRepository,
	aiClient *ai.Client,
	rdb *redis.Client,
	collector *metrics.Collector,
	dailyLimit int64,
) *InsightService {
	return &InsightService{
		expenseRepo: expenseRepo,
		aiClient:    aiClient,
		rdb:         rdb,
		metrics:     collector,
		dailyLimit:  dailyLimit,
		now:         time.Now,
	}
}

func (s *InsightService) Generate(ctx context.Context, userID int64, req InsightRequest) (*InsightResult, error) {
	if !s.aiClient.Configured() {
		return nil, apperrors.AINotConfigured()
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = "Give me insights and tips."
	}
	defaultMode := req.IsDefault ||
		(strings.EqualFold(prompt, defaultInsightPrompt) && len(req.Messages) == 0)

	used, err := s.currentUsage(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("userId", userID).Msg("failed to read AI usage counter")
	}
	if !defaultMode && used >= s.dailyLimit {
		return nil, apperrors.AILimitReached(int(s.dailyLimit))
	}

	summary, rangeLabel, generic, err := s.spendingSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	messages := s.buildMessages(summary, rangeLabel, prompt, generic, req.Messages)

	text, err := s.aiClient.Complete(ctx, messages)
	if err != nil {
		return nil, apperrors.External("AI provider", err)
	}
	s.metrics.RecordAIRequest()

	if !defaultMode {
		used, err = s.recordUsage(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Int64("userId", userID).Msg("failed to record AI usage")
		}
	}

	remaining := s.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}

	return &InsightResult{
		Text:       text,
		Total:      summary.Total,
		Categories: summary.ByCategory,
		Remaining:  remaining,
		RangeLabel: rangeLabel,
	}, nil
}

// spendingSummary walks the fallback chain: current month, then last
// month, then all time. A user with no expenses at all gets generic
// advice instead of a data-grounded summary.
func (s *InsightService) spendingSummary(ctx context.Context, userID int64) (*model.ExpenseSummary, string, bool, error) {
	now := s.now()

	start, end := monthRange(now.Year(), now.Month())
	summary, err := s.rangeSummary(ctx, userID, start, end)
	if err != nil {
		return nil, "", false, err
	}
	if summary.Total.IsPositive() {
		return summary, "current month", false, nil
	}

	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	start, end = monthRange(prev.Year(), prev.Month())
	summary, err = s.rangeSummary(ctx, userID, start, end)
	if err != nil {
		return nil, "", false, err
	}
	if summary.Total.IsPositive() {
		return summary, "last month", false, nil
	}

	total, err := s.expenseRepo.Total(ctx, userID)
	if err != nil {
		return nil, "", false, apperrors.Database(err)
	}
	byCategory, err := s.expenseRepo.TotalByCategory(ctx, userID)
	if err != nil {
		return nil, "", false, apperrors.Database(err)
	}
	if byCategory == nil {
		byCategory = []model.CategoryTotal{}
	}

	summary = &model.ExpenseSummary{Total: total, ByCategory: byCategory}
	return summary, "all time", total.IsZero(), nil
}

func (s *InsightService) rangeSummary(ctx context.Context, userID int64, start, end time.Time) (*model.ExpenseSummary, error) {
	total, err := s.expenseRepo.TotalInRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	byCategory, err := s.expenseRepo.TotalByCategoryInRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if byCategory == nil {
		byCategory = []model.CategoryTotal{}
	}
	return &model.ExpenseSummary{Total: total, ByCategory: byCategory}, nil
}

func (s *InsightService) buildMessages(summary *model.ExpenseSummary, rangeLabel, prompt string, generic bool, history []ai.Message) []ai.Message {
	context := map[string]any{
		"range":      rangeLabel,
		"total":      summary.Total,
		"categories": summary.ByCategory,
		"request":    prompt,
	}
	if generic {
		context["fallback"] = "No expenses found. Provide general financial advice."
	}
	contextJSON, _ := json.Marshal(context)

	var b strings.Builder
	if generic {
		b.WriteString("No expenses found.")
	} else {
		fmt.Fprintf(&b, "Range: %s\nTotal: %s\nBy category:", rangeLabel, summary.Total)
		for _, item := range summary.ByCategory {
			fmt.Fprintf(&b, "\n- %s: %s", item.Category, item.Total)
		}
	}

	messages := []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: string(contextJSON)},
		{Role: "user", Content: "SPENDING SUMMARY\n" + b.String()},
	}

	// Only the most recent exchanges ride along, and roles collapse to
	// the two the provider understands.
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		messages = append(messages, ai.Message{Role: role, Content: msg.Content})
	}

	return messages
}

func (s *InsightService) currentUsage(ctx context.Context, userID int64) (int64, error) {
	key := redis.AIUsageKey(userID, s.now().Format("2006-01-02"))
	count, err := s.rdb.Get(ctx, key).Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// recordUsage bumps the day's counter. The expiry lands just past
// midnight UTC of the next day so counters clean themselves up.
func (s *InsightService) recordUsage(ctx context.Context, userID int64) (int64, error) {
	now := s.now()
	key := redis.AIUsageKey(userID, now.Format("2006-01-02"))

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		midnight := now.UTC().Truncate(24 * time.Hour).Add(25 * time.Hour)
		s.rdb.ExpireAt(ctx, key, midnight)
	}
	return count, nil
}

func monthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}
