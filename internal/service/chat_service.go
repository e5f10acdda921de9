package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/finanza/finanza-api/internal/advice"
	"github.com/finanza/finanza-api/internal/middleware"
	"github.com/finanza/finanza-api/internal/storage"
)

type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatService forwards a question and the caller's recent transactions to
// the advice provider.
type ChatService struct {
	transactions storage.Transactions
	provider     advice.Provider
	logger       *slog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(transactions storage.Transactions, provider advice.Provider, logger *slog.Logger) *ChatService {
	return &ChatService{transactions: transactions, provider: provider, logger: logger}
}

// Chat returns the provider's answer. Provider failures are reported as
// Unavailable.
func (s *ChatService) Chat(ctx context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	txs, err := s.transactions.ListTransactions(ctx, middleware.UserID(ctx))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, err)
	}

	reply, err := s.provider.Advise(ctx, advice.BuildPrompt(req.Msg.Message, txs))
	if err != nil {
		s.logger.WarnContext(ctx, "Advice provider failed", "error", err)
		if !errors.Is(err, advice.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", advice.ErrUnavailable, err)
		}
		return nil, toConnectError(ctx, s.logger, err)
	}

	return connect.NewResponse(&ChatResponse{Reply: reply}), nil
}
