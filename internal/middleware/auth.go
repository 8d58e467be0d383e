// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
	userContextKey = contextKey("user")
	// accessTokenContextKey はリクエストコンテキストにアクセストークンを格納するためのキー。
	accessTokenContextKey = contextKey("access_token")
)

// TokenVerifier はトークン検証とプロフィール取得に必要なインターフェース。
// account.Serviceの部分集合として定義する。
type TokenVerifier interface {
	VerifyToken(ctx context.Context, accessToken string) (string, *model.APIError)
	GetProfile(ctx context.Context, userID string) (*model.User, *model.APIError)
}

// NewAuthMiddleware はAuthorization: Bearerヘッダーのトークンを検証し、
// 認証済みユーザーとトークンをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダー欠落・不正形式・検証失敗には401を、プロフィール不在には404を返す。
func NewAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Token invalide ou expiré")
				return
			}

			userID, apiErr := verifier.VerifyToken(r.Context(), token)
			if apiErr != nil {
				logger.Warn("token verification failed",
					slog.String("path", r.URL.Path),
				)
				writeAuthError(w, http.StatusUnauthorized, "Token invalide ou expiré")
				return
			}

			user, apiErr := verifier.GetProfile(r.Context(), userID)
			if apiErr != nil {
				logger.Warn("profile lookup failed for authenticated token",
					slog.String("user_id", userID),
					slog.String("error", apiErr.Message),
				)
				writeAuthError(w, http.StatusNotFound, "Profil utilisateur non trouvé")
				return
			}

			ctx := ContextWithIdentity(r.Context(), user, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalAuthMiddleware は有効なBearerトークンがあればユーザーをコンテキストに
// 注入し、無ければ匿名のままリクエストを通すミドルウェアを返す。
// 検証失敗でもリクエストを拒否しない。
func NewOptionalAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, apiErr := verifier.VerifyToken(r.Context(), token)
			if apiErr != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, apiErr := verifier.GetProfile(r.Context(), userID)
			if apiErr != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithIdentity(r.Context(), user, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// writeAuthError は認証エラーレスポンスを書き込む。
// 401にはWWW-Authenticateヘッダーを付与する。
func writeAuthError(w http.ResponseWriter, statusCode int, detail string) {
	if statusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// AccessTokenFromContext はリクエストコンテキストからアクセストークンを取得する。
func AccessTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(accessTokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("access token not found in context")
	}
	return token, nil
}

// ContextWithIdentity はコンテキストに認証済みユーザーとトークンを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, user *model.User, accessToken string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, accessTokenContextKey, accessToken)
}
