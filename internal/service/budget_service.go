package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/finanza/finanza-api/internal/calculator"
	"github.com/finanza/finanza-api/internal/middleware"
	"github.com/finanza/finanza-api/internal/models"
	"github.com/finanza/finanza-api/internal/storage"
)

// Budget is the wire form of models.Budget.
type Budget struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	CreatedAt time.Time       `json:"created_at"`
}

func toBudget(b models.Budget) Budget {
	return Budget{ID: b.ID, Category: b.Category, Limit: b.Limit, CreatedAt: b.CreatedAt}
}

type ListBudgetsRequest struct{}

type ListBudgetsResponse struct {
	Budgets []Budget `json:"budgets"`
}

// BudgetRequest creates a budget or changes its limit.
type BudgetRequest struct {
	Category string           `json:"category" validate:"required,max=100"`
	Limit    *decimal.Decimal `json:"limit" validate:"required"`
}

type BudgetResponse struct {
	Budget Budget `json:"budget"`
}

type DeleteBudgetRequest struct {
	Category string `json:"category" validate:"required"`
}

type GetBudgetSummaryRequest struct{}

type BudgetStatus struct {
	Category   string          `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
}

// BudgetSummaryResponse compares each budget with this month's expenses.
type BudgetSummaryResponse struct {
	Budgets        []BudgetStatus  `json:"budgets"`
	TotalBudget    decimal.Decimal `json:"total_budget"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
}

// BudgetService implements the BudgetService RPC interface.
// Budgets are addressed by category, which is unique per user.
type BudgetService struct {
	budgets      storage.Budgets
	transactions storage.Transactions
	logger       *slog.Logger
	now          func() time.Time
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(budgets storage.Budgets, transactions storage.Transactions, logger *slog.Logger) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		transactions: transactions,
		logger:       logger,
		now:          time.Now,
	}
}

func normalizeBudgetRequest(msg *BudgetRequest) error {
	msg.Category = strings.TrimSpace(msg.Category)
	if err := validateRequest(msg); err != nil {
		return err
	}
	return checkMoney("limit", msg.Limit)
}

// ListBudgets returns the caller's budgets in creation order.
func (s *BudgetService) ListBudgets(ctx context.Context, req *connect.Request[ListBudgetsRequest]) (*connect.Response[ListBudgetsResponse], error) {
	budgets, err := s.budgets.ListBudgets(ctx, middleware.UserID(ctx))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	resp := &ListBudgetsResponse{Budgets: make([]Budget, 0, len(budgets))}
	for _, b := range budgets {
		resp.Budgets = append(resp.Budgets, toBudget(b))
	}
	return connect.NewResponse(resp), nil
}

// CreateBudget adds a budget for a category the caller has not budgeted yet.
func (s *BudgetService) CreateBudget(ctx context.Context, req *connect.Request[BudgetRequest]) (*connect.Response[BudgetResponse], error) {
	if err := normalizeBudgetRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	b := &models.Budget{
		UserID:   middleware.UserID(ctx),
		Category: req.Msg.Category,
		Limit:    *req.Msg.Limit,
	}
	if _, err := s.budgets.InsertBudget(ctx, b); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	return connect.NewResponse(&BudgetResponse{Budget: toBudget(*b)}), nil
}

// UpdateBudget changes the limit of an existing budget.
func (s *BudgetService) UpdateBudget(ctx context.Context, req *connect.Request[BudgetRequest]) (*connect.Response[OKResponse], error) {
	if err := normalizeBudgetRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	found, err := s.budgets.UpdateBudgetLimit(ctx, middleware.UserID(ctx), req.Msg.Category, *req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	if !found {
		return nil, toConnectError(ctx, s.logger, storage.ErrNotFound)
	}

	return connect.NewResponse(&OKResponse{OK: true}), nil
}

// DeleteBudget removes the caller's budget for a category.
func (s *BudgetService) DeleteBudget(ctx context.Context, req *connect.Request[DeleteBudgetRequest]) (*connect.Response[OKResponse], error) {
	req.Msg.Category = strings.TrimSpace(req.Msg.Category)
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	found, err := s.budgets.DeleteBudget(ctx, middleware.UserID(ctx), req.Msg.Category)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	if !found {
		return nil, toConnectError(ctx, s.logger, storage.ErrNotFound)
	}

	return connect.NewResponse(&OKResponse{OK: true}), nil
}

// GetBudgetSummary reports spending against each budget for the current month.
func (s *BudgetService) GetBudgetSummary(ctx context.Context, req *connect.Request[GetBudgetSummaryRequest]) (*connect.Response[BudgetSummaryResponse], error) {
	userID := middleware.UserID(ctx)

	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	txs, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	summary := calculator.SummarizeBudgets(budgets, txs, calculator.StartOfMonth(s.now()))

	resp := &BudgetSummaryResponse{
		Budgets:        make([]BudgetStatus, 0, len(summary.Budgets)),
		TotalBudget:    summary.TotalBudget,
		TotalSpent:     summary.TotalSpent,
		TotalRemaining: summary.TotalRemaining,
	}
	for _, st := range summary.Budgets {
		resp.Budgets = append(resp.Budgets, BudgetStatus{
			Category:   st.Budget.Category,
			Limit:      st.Budget.Limit,
			Spent:      st.Spent,
			Remaining:  st.Remaining,
			Percentage: st.Percentage,
		})
	}
	return connect.NewResponse(resp), nil
}
