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

// Transaction is the wire form of models.Transaction.
type Transaction struct {
	ID        string          `json:"id"`
	Type      models.Kind     `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

func toTransaction(tx models.Transaction) Transaction {
	return Transaction{
		ID:        tx.ID,
		Type:      tx.Kind,
		Amount:    tx.Amount,
		Category:  tx.Category,
		CreatedAt: tx.CreatedAt,
	}
}

type ListTransactionsRequest struct{}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type CreateTransactionRequest struct {
	Type     string           `json:"type" validate:"required,oneof=income expense"`
	Amount   *decimal.Decimal `json:"amount" validate:"required"`
	Category string           `json:"category" validate:"max=100"`
}

type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

// UpdateTransactionRequest changes only the fields that are present.
type UpdateTransactionRequest struct {
	ID       string           `json:"id" validate:"required"`
	Type     *string          `json:"type" validate:"omitempty,oneof=income expense"`
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category" validate:"omitempty,max=100"`
}

type DeleteTransactionRequest struct {
	ID string `json:"id" validate:"required"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type GetBalanceRequest struct{}

type GetBalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// TransactionService implements the TransactionService RPC interface.
// Every call is scoped to the authenticated user.
type TransactionService struct {
	transactions storage.Transactions
	logger       *slog.Logger
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(transactions storage.Transactions, logger *slog.Logger) *TransactionService {
	return &TransactionService{transactions: transactions, logger: logger}
}

// checkMoney rejects values outside the range every backend can store.
func checkMoney(field string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	if err := models.CheckMoney(*d); err != nil {
		return invalidField(field, err.Error())
	}
	return nil
}

// ListTransactions returns the caller's transactions in insertion order.
func (s *TransactionService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	txs, err := s.transactions.ListTransactions(ctx, middleware.UserID(ctx))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	resp := &ListTransactionsResponse{Transactions: make([]Transaction, 0, len(txs))}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, toTransaction(tx))
	}
	return connect.NewResponse(resp), nil
}

// CreateTransaction records a new income or expense.
func (s *TransactionService) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	if err := checkMoney("amount", req.Msg.Amount); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	tx := &models.Transaction{
		UserID:   middleware.UserID(ctx),
		Kind:     models.Kind(req.Msg.Type),
		Amount:   *req.Msg.Amount,
		Category: strings.TrimSpace(req.Msg.Category),
	}
	if _, err := s.transactions.InsertTransaction(ctx, tx); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	s.logger.DebugContext(ctx, "Transaction created", "transaction_id", tx.ID, "type", tx.Kind)
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(*tx)}), nil
}

// UpdateTransaction applies a partial update to one of the caller's transactions.
func (s *TransactionService) UpdateTransaction(ctx context.Context, req *connect.Request[UpdateTransactionRequest]) (*connect.Response[OKResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	if err := checkMoney("amount", req.Msg.Amount); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	var patch models.TransactionPatch
	if req.Msg.Type != nil {
		kind := models.Kind(*req.Msg.Type)
		patch.Kind = &kind
	}
	patch.Amount = req.Msg.Amount
	if req.Msg.Category != nil {
		category := strings.TrimSpace(*req.Msg.Category)
		patch.Category = &category
	}

	found, err := s.transactions.UpdateTransaction(ctx, middleware.UserID(ctx), req.Msg.ID, patch)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	if !found {
		return nil, toConnectError(ctx, s.logger, storage.ErrNotFound)
	}

	return connect.NewResponse(&OKResponse{OK: true}), nil
}

// DeleteTransaction removes one of the caller's transactions.
func (s *TransactionService) DeleteTransaction(ctx context.Context, req *connect.Request[DeleteTransactionRequest]) (*connect.Response[OKResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	found, err := s.transactions.DeleteTransaction(ctx, middleware.UserID(ctx), req.Msg.ID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}
	if !found {
		return nil, toConnectError(ctx, s.logger, storage.ErrNotFound)
	}

	return connect.NewResponse(&OKResponse{OK: true}), nil
}

// GetBalance returns total income minus total expenses for the caller.
func (s *TransactionService) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	txs, err := s.transactions.ListTransactions(ctx, middleware.UserID(ctx))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	return connect.NewResponse(&GetBalanceResponse{Balance: calculator.Balance(txs)}), nil
}
