package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/finanza/finanza-api/internal/auth"
	"github.com/finanza/finanza-api/internal/middleware"
)

// Fully-qualified procedure names, which are also the HTTP paths.
const (
	AuthServiceRegisterProcedure       = "/finanza.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/finanza.v1.AuthService/Login"
	AuthServiceForgotPasswordProcedure = "/finanza.v1.AuthService/ForgotPassword"
	AuthServiceResetPasswordProcedure  = "/finanza.v1.AuthService/ResetPassword"
	AuthServiceMeProcedure             = "/finanza.v1.AuthService/Me"

	TransactionServiceListTransactionsProcedure  = "/finanza.v1.TransactionService/ListTransactions"
	TransactionServiceCreateTransactionProcedure = "/finanza.v1.TransactionService/CreateTransaction"
	TransactionServiceUpdateTransactionProcedure = "/finanza.v1.TransactionService/UpdateTransaction"
	TransactionServiceDeleteTransactionProcedure = "/finanza.v1.TransactionService/DeleteTransaction"
	TransactionServiceGetBalanceProcedure        = "/finanza.v1.TransactionService/GetBalance"

	BudgetServiceListBudgetsProcedure      = "/finanza.v1.BudgetService/ListBudgets"
	BudgetServiceCreateBudgetProcedure     = "/finanza.v1.BudgetService/CreateBudget"
	BudgetServiceUpdateBudgetProcedure     = "/finanza.v1.BudgetService/UpdateBudget"
	BudgetServiceDeleteBudgetProcedure     = "/finanza.v1.BudgetService/DeleteBudget"
	BudgetServiceGetBudgetSummaryProcedure = "/finanza.v1.BudgetService/GetBudgetSummary"

	ChatServiceChatProcedure = "/finanza.v1.ChatService/Chat"
)

// Services groups the RPC implementations mounted by Register.
type Services struct {
	Auth         *AuthService
	Transactions *TransactionService
	Budgets      *BudgetService
	Chat         *ChatService
}

// RouteOptions configures the interceptors shared by every handler.
type RouteOptions struct {
	Tokens  *auth.TokenService
	Logger  *slog.Logger
	Metrics *middleware.Metrics // optional
}

// Register mounts every procedure on mux. Everything except registration,
// login and the reset flow requires a bearer token.
func Register(mux *http.ServeMux, svcs Services, opts RouteOptions) {
	var publicChain, protectedChain []connect.Interceptor
	if opts.Metrics != nil {
		publicChain = append(publicChain, opts.Metrics.Interceptor())
		protectedChain = append(protectedChain, opts.Metrics.Interceptor())
	}
	// The first interceptor is the outermost, so logging sees the user ID.
	protectedChain = append(protectedChain, middleware.RequireAuth(opts.Tokens, opts.Logger))
	publicChain = append(publicChain, middleware.LoggingInterceptor(opts.Logger))
	protectedChain = append(protectedChain, middleware.LoggingInterceptor(opts.Logger))

	public := []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithCodec(charsetJSONCodec{}),
		connect.WithInterceptors(publicChain...),
	}
	protected := []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithCodec(charsetJSONCodec{}),
		connect.WithInterceptors(protectedChain...),
	}

	a := svcs.Auth
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, a.Register, public...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, a.Login, public...))
	mux.Handle(AuthServiceForgotPasswordProcedure, connect.NewUnaryHandler(AuthServiceForgotPasswordProcedure, a.ForgotPassword, public...))
	mux.Handle(AuthServiceResetPasswordProcedure, connect.NewUnaryHandler(AuthServiceResetPasswordProcedure, a.ResetPassword, public...))
	mux.Handle(AuthServiceMeProcedure, connect.NewUnaryHandler(AuthServiceMeProcedure, a.Me, protected...))

	t := svcs.Transactions
	mux.Handle(TransactionServiceListTransactionsProcedure, connect.NewUnaryHandler(TransactionServiceListTransactionsProcedure, t.ListTransactions, protected...))
	mux.Handle(TransactionServiceCreateTransactionProcedure, connect.NewUnaryHandler(TransactionServiceCreateTransactionProcedure, t.CreateTransaction, protected...))
	mux.Handle(TransactionServiceUpdateTransactionProcedure, connect.NewUnaryHandler(TransactionServiceUpdateTransactionProcedure, t.UpdateTransaction, protected...))
	mux.Handle(TransactionServiceDeleteTransactionProcedure, connect.NewUnaryHandler(TransactionServiceDeleteTransactionProcedure, t.DeleteTransaction, protected...))
	mux.Handle(TransactionServiceGetBalanceProcedure, connect.NewUnaryHandler(TransactionServiceGetBalanceProcedure, t.GetBalance, protected...))

	b := svcs.Budgets
	mux.Handle(BudgetServiceListBudgetsProcedure, connect.NewUnaryHandler(BudgetServiceListBudgetsProcedure, b.ListBudgets, protected...))
	mux.Handle(BudgetServiceCreateBudgetProcedure, connect.NewUnaryHandler(BudgetServiceCreateBudgetProcedure, b.CreateBudget, protected...))
	mux.Handle(BudgetServiceUpdateBudgetProcedure, connect.NewUnaryHandler(BudgetServiceUpdateBudgetProcedure, b.UpdateBudget, protected...))
	mux.Handle(BudgetServiceDeleteBudgetProcedure, connect.NewUnaryHandler(BudgetServiceDeleteBudgetProcedure, b.DeleteBudget, protected...))
	mux.Handle(BudgetServiceGetBudgetSummaryProcedure, connect.NewUnaryHandler(BudgetServiceGetBudgetSummaryProcedure, b.GetBudgetSummary, protected...))

	mux.Handle(ChatServiceChatProcedure, connect.NewUnaryHandler(ChatServiceChatProcedure, svcs.Chat.Chat, protected...))
}
