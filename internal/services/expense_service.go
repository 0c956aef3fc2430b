package services

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

// EventPublisher delivers change notifications. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// ExpenseService orchestrates the store, the aggregation engine, the view
// cache and event publishing.
type ExpenseService struct {
	store     *store.Store
	publisher EventPublisher
	views     cache.Cache[aggregate.View]
	now       func() time.Time
	logger    *applog.Logger
}

type Option func(*ExpenseService)

// WithPublisher enables event publishing after mutations.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithViewCache memoizes computed views. Cached views are shared between
// callers and must be treated as read-only.
func WithViewCache(c cache.Cache[aggregate.View]) Option {
	return func(s *ExpenseService) { s.views = c }
}

// WithClock sets the time source used for "current month".
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

func NewExpenseService(st *store.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:  st,
		now:    time.Now,
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = store.New()
	}
	s.logger = s.logger.WithComponent(applog.ComponentExpense)
	return s
}

// CreateExpense validates and stores a new expense, then publishes it.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.store.Add(in)
	if err != nil {
		s.logRejected(ctx, applog.OpCreate, err, 0)
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		applog.NewFields().WithExpense(e.ID, e.Amount.Cents, e.Category.String()).WithOperation(applog.OpCreate).ToSlice()...)

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e))
	s.checkBudget(ctx, e.Category)
	return e, nil
}

// UpdateExpense replaces the fields of an existing expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.store.Update(id, in)
	if err != nil {
		s.logRejected(ctx, applog.OpUpdate, err, id)
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense updated",
		applog.NewFields().WithExpense(e.ID, e.Amount.Cents, e.Category.String()).WithOperation(applog.OpUpdate).ToSlice()...)

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseUpdated, e))
	s.checkBudget(ctx, e.Category)
	return e, nil
}

// DeleteExpense removes an expense. Deleting an unknown id is not an error;
// the result reports whether anything was removed.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) bool {
	if !s.store.Remove(id) {
		s.logger.DebugContext(ctx, "Delete of unknown expense ignored", applog.FieldExpenseID, id)
		return false
	}
	s.logger.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id, applog.FieldOperation, applog.OpDelete)
	s.publish(ctx, amqp.NewDeleteEvent(id))
	return true
}

// SetBudget sets the monthly limit for a category.
func (s *ExpenseService) SetBudget(ctx context.Context, c core.Category, limit core.Money) error {
	if err := s.store.SetBudget(c, limit); err != nil {
		s.logRejected(ctx, applog.OpBudget, err, 0)
		return fmt.Errorf("set budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget set",
		applog.NewFields().WithBudget(c.String(), limit.Cents).WithOperation(applog.OpBudget).ToSlice()...)

	s.publish(ctx, amqp.NewBudgetEvent(amqp.EventBudgetSet, c, limit, core.Money{}, s.now().Format("2006-01")))
	s.checkBudget(ctx, c)
	return nil
}

// Budgets returns every limit in category order.
func (s *ExpenseService) Budgets(_ context.Context) []core.Budget {
	budgets := s.store.Budgets()
	out := make([]core.Budget, 0, len(budgets))
	for _, c := range core.Categories {
		if limit, ok := budgets[c]; ok {
			out = append(out, core.Budget{Category: c, Limit: limit})
		}
	}
	return out
}

func (s *ExpenseService) Expense(_ context.Context, id int64) (core.Expense, error) {
	return s.store.Get(id)
}

// ListExpenses returns every expense in insertion order.
func (s *ExpenseService) ListExpenses(_ context.Context) []core.Expense {
	return s.store.List()
}

// ViewCacheStats reports view cache effectiveness; zero without a cache.
func (s *ExpenseService) ViewCacheStats() cache.Stats {
	if s.views == nil {
		return cache.Stats{}
	}
	return s.views.Stats()
}

// Count returns the number of stored expenses.
func (s *ExpenseService) Count() int {
	return s.store.Len()
}

func (s *ExpenseService) Categories() []core.Category {
	return append([]core.Category(nil), core.Categories...)
}

// View computes the list, total, breakdown and warnings under f.
func (s *ExpenseService) View(_ context.Context, f aggregate.FilterSpec) aggregate.View {
	now := s.now()
	// Read the revision before the data so a concurrent mutation can only
	// leave newer data under an older key, which is never asked for again.
	rev := s.store.Revision()
	compute := func() aggregate.View {
		return aggregate.BuildView(s.store.List(), f, s.store.Budgets(), now)
	}
	if s.views == nil {
		return compute()
	}
	key := fmt.Sprintf("%d|%s|%s", rev, now.Format("2006-01"), f.Key())
	return s.views.GetOrCompute(key, compute)
}

func (s *ExpenseService) Total(ctx context.Context, f aggregate.FilterSpec) core.Money {
	return s.View(ctx, f).Total
}

func (s *ExpenseService) Breakdown(ctx context.Context, f aggregate.FilterSpec) []core.CategoryAmount {
	return s.View(ctx, f).Breakdown
}

// ExportCSV renders the records of the view under f.
func (s *ExpenseService) ExportCSV(ctx context.Context, f aggregate.FilterSpec) string {
	v := s.View(ctx, f)
	s.logger.InfoContext(ctx, "Expenses exported",
		applog.FieldOperation, applog.OpExport,
		"rows", len(v.Records),
		applog.FieldFilter, f.Key())
	return export.Render(v.Records)
}

func (s *ExpenseService) checkBudget(ctx context.Context, c core.Category) {
	limit, ok := s.store.Budget(c)
	if !ok {
		return
	}
	now := s.now()
	month := aggregate.CurrentMonthRecords(s.store.List(), now)
	if !aggregate.IsOverBudget(c, month, map[core.Category]core.Money{c: limit}) {
		return
	}
	spent := aggregate.Breakdown(month, []core.Category{c})[c]
	s.logger.WarnContext(ctx, "Category over budget",
		applog.NewFields().WithBudget(c.String(), limit.Cents).ToSlice()...)
	s.publish(ctx, amqp.NewBudgetEvent(amqp.EventBudgetExceeded, c, limit, spent, now.Format("2006-01")))
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.Event) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping event", applog.FieldEvent, ev.Type)
		return
	}
	// The mutation already succeeded; a lost event is only logged.
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish event", err, applog.OpPublish,
			applog.NewFields().WithErrorType(applog.ErrorTypeNetwork))
	}
}

func (s *ExpenseService) logRejected(ctx context.Context, op string, err error, id int64) {
	fields := applog.NewFields().WithOperation(op).WithError(err)
	switch {
	case core.IsValidation(err):
		fields.WithErrorType(applog.ErrorTypeValidation)
	case core.IsNotFound(err):
		fields.WithErrorType(applog.ErrorTypeNotFound)
	default:
		fields.WithErrorType(applog.ErrorTypeInternal)
	}
	if id != 0 {
		fields[applog.FieldExpenseID] = id
	}
	s.logger.InfoContext(ctx, "Mutation rejected", fields.ToSlice()...)
}

// Close releases the publisher when it owns a connection.
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
