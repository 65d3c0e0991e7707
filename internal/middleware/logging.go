package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/calories/internal/service"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, account and outcome. Rejected input is logged with the
// offending field names; only server faults are logged at error level.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			accountID := GetAccountID(ctx) // empty if pre-auth

			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"account_id", accountID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				slog.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				attrs = append(attrs, "fields", verr.FieldNames())
			}
			switch code {
			case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
				slog.ErrorContext(ctx, "RPC failed", attrs...)
			default:
				slog.WarnContext(ctx, "RPC rejected", attrs...)
			}
			return resp, err
		}
	}
}

// RequestLogger logs every HTTP request with its status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// CORS adds CORS headers for browser access to both the REST and Connect surfaces.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
