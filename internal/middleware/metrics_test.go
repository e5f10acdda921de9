package middleware

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInterceptor(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	intercept := m.Interceptor()

	ok := connect.UnaryFunc(func(ctx context.Context, r connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&empty{}), nil
	})
	fail := connect.UnaryFunc(func(ctx context.Context, r connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("missing"))
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := intercept(ok)(ctx, connect.NewRequest(&empty{})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := intercept(fail)(ctx, connect.NewRequest(&empty{})); err == nil {
		t.Fatal("expected error")
	}

	// requests built outside a handler have an empty procedure
	if got := testutil.ToFloat64(m.requests.WithLabelValues("", "ok")); got != 2 {
		t.Errorf("ok count: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("", "not_found")); got != 1 {
		t.Errorf("not_found count: got %v, want 1", got)
	}
}
