package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/budget-planner/internal/ai"
	"github.com/spec-kit/budget-planner/internal/domain"
	"github.com/spec-kit/budget-planner/internal/events"
	"github.com/spec-kit/budget-planner/internal/repository"
)

// In-memory repository doubles used across the service tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.FullName = user.FullName
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByPanicUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var match *domain.User
	for _, user := range f.users {
		if user.TravelMode.PanicUsername == nil || *user.TravelMode.PanicUsername != username {
			continue
		}
		if match == nil || user.CreatedAt.Before(match.CreatedAt) {
			match = user
		}
	}
	if match == nil {
		return nil, pgx.ErrNoRows
	}
	clone := *match
	return &clone, nil
}

func (f *fakeUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UpdateTravelMode(_ context.Context, id string, patch domain.TravelModePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.TravelMode.Enabled = patch.Enabled
	user.TravelMode.HideStats = patch.HideStats
	if patch.PanicUsername != nil && patch.PanicPasswordHash != nil {
		user.TravelMode.PanicUsername = patch.PanicUsername
		user.TravelMode.PanicPasswordHash = patch.PanicPasswordHash
	}
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) AnyTravelModeEnabled(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.TravelMode.Enabled {
			return true, nil
		}
	}
	return false, nil
}

type fakeTransactionRepo struct {
	mu           sync.Mutex
	transactions map[string]*domain.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{transactions: make(map[string]*domain.Transaction)}
}

func (f *fakeTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	clone := *tx
	f.transactions[tx.ID] = &clone
	return nil
}

func (f *fakeTransactionRepo) Update(_ context.Context, tx *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.transactions[tx.ID]
	if !ok || stored.UserID != tx.UserID {
		return pgx.ErrNoRows
	}
	clone := *tx
	f.transactions[tx.ID] = &clone
	return nil
}

func (f *fakeTransactionRepo) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.transactions[id]
	if !ok || stored.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeTransactionRepo) GetByID(_ context.Context, userID, id string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.transactions[id]
	if !ok || stored.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeTransactionRepo) List(_ context.Context, userID string, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range f.transactions {
		if tx.UserID != userID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Category != "" && tx.Category != filter.Category {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !tx.Date.Before(*filter.To) {
			continue
		}
		out = append(out, *tx)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeTransactionRepo) TotalsByCategory(_ context.Context, userID string, from, to time.Time) ([]repository.CategoryTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type key struct {
		t domain.TransactionType
		c string
	}
	agg := make(map[key]*repository.CategoryTotal)
	for _, tx := range f.transactions {
		if tx.UserID != userID || tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		k := key{t: tx.Type, c: tx.Category}
		total, ok := agg[k]
		if !ok {
			total = &repository.CategoryTotal{Type: tx.Type, Category: tx.Category}
			agg[k] = total
		}
		total.Total += tx.Amount
		total.Count++
	}
	out := make([]repository.CategoryTotal, 0, len(agg))
	for _, total := range agg {
		out = append(out, *total)
	}
	return out, nil
}

func (f *fakeTransactionRepo) ExpenseTotal(_ context.Context, userID, category string, from, to time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, tx := range f.transactions {
		if tx.UserID != userID || tx.Type != domain.TransactionTypeExpense || tx.Category != category {
			continue
		}
		if tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		total += tx.Amount
	}
	return total, nil
}

type fakeBudgetRepo struct {
	mu      sync.Mutex
	budgets map[string]*domain.Budget // keyed by userID + "/" + category
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{budgets: make(map[string]*domain.Budget)}
}

func budgetKey(userID, category string) string {
	return userID + "/" + category
}

func (f *fakeBudgetRepo) Create(_ context.Context, budget *domain.Budget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	budget.ID = uuid.NewString()
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	clone := *budget
	f.budgets[budgetKey(budget.UserID, budget.Category)] = &clone
	return nil
}

func (f *fakeBudgetRepo) UpdateAmount(_ context.Context, userID, category string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	budget, ok := f.budgets[budgetKey(userID, category)]
	if !ok {
		return pgx.ErrNoRows
	}
	budget.Amount = amount
	return nil
}

func (f *fakeBudgetRepo) Delete(_ context.Context, userID, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := budgetKey(userID, category)
	if _, ok := f.budgets[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.budgets, key)
	return nil
}

func (f *fakeBudgetRepo) GetByCategory(_ context.Context, userID, category string) (*domain.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	budget, ok := f.budgets[budgetKey(userID, category)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *budget
	return &clone, nil
}

func (f *fakeBudgetRepo) List(_ context.Context, userID string) ([]domain.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Budget
	for _, budget := range f.budgets {
		if budget.UserID == userID {
			out = append(out, *budget)
		}
	}
	return out, nil
}

type fakeChatRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.ChatSession
	messages map[string][]domain.ChatMessage
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		sessions: make(map[string]*domain.ChatSession),
		messages: make(map[string][]domain.ChatMessage),
	}
}

func (f *fakeChatRepo) CreateSession(_ context.Context, session *domain.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.CreatedAt = time.Now()
	session.LastAccessed = session.CreatedAt
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeChatRepo) GetSession(_ context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	clone := *session
	return &clone, nil
}

func (f *fakeChatRepo) ListSessions(_ context.Context, userID string, limit int) ([]repository.ChatSessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ChatSessionSummary
	for _, session := range f.sessions {
		if session.UserID != userID {
			continue
		}
		out = append(out, repository.ChatSessionSummary{
			Session:      *session,
			MessageCount: len(f.messages[session.ID]),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChatRepo) DeleteSession(_ context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(f.sessions, sessionID)
	delete(f.messages, sessionID)
	return nil
}

func (f *fakeChatRepo) TouchSession(_ context.Context, userID, sessionID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return pgx.ErrNoRows
	}
	if title != "" {
		session.Title = title
	}
	session.LastAccessed = time.Now()
	return nil
}

func (f *fakeChatRepo) AppendMessages(_ context.Context, sessionID string, messages []domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range messages {
		msg.ID = uuid.NewString()
		msg.CreatedAt = time.Now()
		f.messages[sessionID] = append(f.messages[sessionID], msg)
	}
	return nil
}

func (f *fakeChatRepo) ListMessages(_ context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.Event, len(d.events))
	copy(out, d.events)
	return out
}

type stubCompletions struct {
	reply        string
	err          error
	lastMessages []ai.Message
}

func (s *stubCompletions) ChatCompletion(_ context.Context, messages []ai.Message) (string, error) {
	s.lastMessages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}
