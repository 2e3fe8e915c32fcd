package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/budget-planner/internal/ai"
	"github.com/spec-kit/budget-planner/internal/config"
	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/repository"
	apperrors "github.com/spec-kit/budget-planner/pkg/util"
)

const (
	chatHistoryWindow  = 10
	chatSessionLimit   = 20
	chatTitleLimit     = 50
	contextCachePrefix = "finctx:"

	fallbackReply = "I'm sorry, I'm having trouble processing your request right now. Please try again in a moment."
)

// ChatService runs assistant conversations grounded in the caller's
// financial data.
type ChatService struct {
	sessions     repository.ChatRepository
	transactions repository.TransactionRepository
	budgets      repository.BudgetRepository
	completions  ai.CompletionClient
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// ChatDependencies bundles requirements for the chat service.
type ChatDependencies struct {
	ChatRepo        repository.ChatRepository
	TransactionRepo repository.TransactionRepository
	BudgetRepo      repository.BudgetRepository
	Completions     ai.CompletionClient
	Cache           *redis.Client
	Logger          *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(cfg config.AIConfig, deps ChatDependencies) *ChatService {
	return &ChatService{
		sessions:     deps.ChatRepo,
		transactions: deps.TransactionRepo,
		budgets:      deps.BudgetRepo,
		completions:  deps.Completions,
		cache:        deps.Cache,
		cacheTTL:     cfg.ContextCacheTTL(),
		logger:       deps.Logger,
	}
}

// financialContext is the snapshot of a user's finances handed to the
// assistant as system-prompt context.
type financialContext struct {
	MonthlyIncome      float64  `json:"monthly_income"`
	MonthlyExpenses    float64  `json:"monthly_expenses"`
	NetBalance         float64  `json:"net_balance"`
	TotalBudget        float64  `json:"total_budget"`
	RecentTransactions []string `json:"recent_transactions"`
	BudgetCategories   []string `json:"budget_categories"`
}

// Chat sends a message in an existing or new session and returns the
// assistant reply. Provider failures degrade to a canned apology rather
// than failing the request.
func (s *ChatService) Chat(ctx context.Context, userID, message string, sessionID *string) (string, string, error) {
	var session *domain.ChatSession
	if sessionID != nil && *sessionID != "" {
		found, err := s.sessions.GetSession(ctx, userID, *sessionID)
		if err != nil {
			return "", "", apperrors.MapError(err)
		}
		session = found
	} else {
		session = &domain.ChatSession{ID: uuid.NewString(), UserID: userID, Title: "New Chat"}
		if err := s.sessions.CreateSession(ctx, session); err != nil {
			return "", "", apperrors.MapError(err)
		}
	}

	history, err := s.sessions.ListMessages(ctx, session.ID, chatHistoryWindow)
	if err != nil {
		return "", "", apperrors.MapError(err)
	}

	conversation := make([]ai.Message, 0, len(history)+2)
	conversation = append(conversation, ai.Message{
		Role:    "system",
		Content: s.systemPrompt(ctx, userID),
	})
	for _, msg := range history {
		conversation = append(conversation, ai.Message{Role: string(msg.Role), Content: msg.Content})
	}
	conversation = append(conversation, ai.Message{Role: "user", Content: message})

	reply, err := s.completions.ChatCompletion(ctx, conversation)
	if err != nil {
		s.logger.Error("chat completion failed", zap.Error(err))
		reply = fallbackReply
	}

	if err := s.sessions.AppendMessages(ctx, session.ID, []domain.ChatMessage{
		{SessionID: session.ID, Role: domain.ChatRoleUser, Content: message},
		{SessionID: session.ID, Role: domain.ChatRoleAssistant, Content: reply},
	}); err != nil {
		return "", "", apperrors.MapError(err)
	}

	title := ""
	if len(history) == 0 {
		title = message
		// Truncate on runes, not bytes, so a multi-byte character at the
		// boundary cannot produce an invalid title.
		if runes := []rune(title); len(runes) > chatTitleLimit {
			title = string(runes[:chatTitleLimit]) + "..."
		}
	}
	if err := s.sessions.TouchSession(ctx, userID, session.ID, title); err != nil {
		return "", "", apperrors.MapError(err)
	}

	return reply, session.ID, nil
}

// ListSessions returns the caller's most recently used sessions.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]repository.ChatSessionSummary, error) {
	sessions, err := s.sessions.ListSessions(ctx, userID, chatSessionLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sessions, nil
}

// History returns a session and its full message log.
func (s *ChatService) History(ctx context.Context, userID, sessionID string) (*domain.ChatSession, []domain.ChatMessage, error) {
	session, err := s.sessions.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	messages, err := s.sessions.ListMessages(ctx, session.ID, 0)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return session, messages, nil
}

// DeleteSession removes one of the caller's sessions.
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, userID, sessionID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ChatService) systemPrompt(ctx context.Context, userID string) string {
	prompt := strings.Builder{}
	prompt.WriteString("You are a helpful financial assistant for a budget planner app. " +
		"You provide personalized financial advice, help analyze spending patterns, and assist with budgeting decisions.\n\n" +
		"Keep your responses concise but helpful. Focus on actionable advice and insights.\n")

	fc, err := s.financialContextFor(ctx, userID)
	if err != nil {
		s.logger.Warn("building financial context failed", zap.Error(err))
		return prompt.String()
	}

	fmt.Fprintf(&prompt, "\nUser's Current Financial Context:\n"+
		"- Monthly Income: $%.2f\n"+
		"- Monthly Expenses: $%.2f\n"+
		"- Net Balance: $%.2f\n"+
		"- Total Budget Set: $%.2f\n",
		fc.MonthlyIncome, fc.MonthlyExpenses, fc.NetBalance, fc.TotalBudget)

	prompt.WriteString("\nRecent Transactions:\n")
	prompt.WriteString(strings.Join(fc.RecentTransactions, "\n"))
	prompt.WriteString("\n\nBudget Categories:\n")
	prompt.WriteString(strings.Join(fc.BudgetCategories, "\n"))
	prompt.WriteString("\n\nUse this context to provide personalized financial advice. Reference specific numbers when relevant.\n")

	return prompt.String()
}

// financialContextFor builds the snapshot, serving it from Redis when a
// fresh copy is cached. Cache failures fall through to the store.
func (s *ChatService) financialContextFor(ctx context.Context, userID string) (*financialContext, error) {
	cacheKey := contextCachePrefix + userID
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached financialContext
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	fc, err := s.buildFinancialContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(fc); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Debug("context cache write failed", zap.Error(err))
			}
		}
	}
	return fc, nil
}

func (s *ChatService) buildFinancialContext(ctx context.Context, userID string) (*financialContext, error) {
	now := time.Now().UTC()
	from, to := monthRange(now.Year(), now.Month())

	totals, err := s.transactions.TotalsByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	fc := &financialContext{
		RecentTransactions: []string{},
		BudgetCategories:   []string{},
	}
	for _, t := range totals {
		switch t.Type {
		case domain.TransactionTypeIncome:
			fc.MonthlyIncome += t.Total
		case domain.TransactionTypeExpense:
			fc.MonthlyExpenses += t.Total
		}
	}
	fc.NetBalance = fc.MonthlyIncome - fc.MonthlyExpenses

	recent, err := s.transactions.List(ctx, userID, repository.TransactionFilter{Limit: 5})
	if err != nil {
		return nil, err
	}
	for _, tx := range recent {
		fc.RecentTransactions = append(fc.RecentTransactions,
			fmt.Sprintf("• %s: $%.2f (%s, %s)", tx.Description, tx.Amount, tx.Category, tx.Type))
	}

	budgets, err := s.budgets.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, b := range budgets {
		fc.TotalBudget += b.Amount
		fc.BudgetCategories = append(fc.BudgetCategories,
			fmt.Sprintf("• %s: $%.2f budget", b.Category, b.Amount))
	}

	return fc, nil
}
