package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Jerxmyy/workshop-musee-backend/internal/account"
	"github.com/Jerxmyy/workshop-musee-backend/internal/middleware"
	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

// validate はリクエストボディ検証用のシングルトン。スレッドセーフ。
var validate = validator.New()

// AccountServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Register(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError)
	Login(ctx context.Context, email, password string) (*account.AuthResult, *model.APIError)
	Logout(ctx context.Context, accessToken string)
}

// AuthHandler は登録・認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AccountServiceInterface
	logger  *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AccountServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// registerRequest はPOST /registerのリクエストボディ。
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Nom      string `json:"nom" validate:"required"`
	Prenom   string `json:"prenom" validate:"required"`
}

// loginRequest はPOST /loginのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authResponse は登録・ログイン成功時のレスポンス。
// AccessTokenはセッション未発行（メール確認待ち等）の場合nullになる。
type authResponse struct {
	Message     string     `json:"message"`
	User        model.User `json:"user"`
	AccessToken *string    `json:"access_token"`
}

// tokenOrNull は空のアクセストークンをJSONのnullとして表現する。
func tokenOrNull(token string) *string {
	if token == "" {
		return nil
	}
	return &token
}

// Register は新規ユーザーを登録する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}

	result, apiErr := h.service.Register(r.Context(), req.Email, req.Password, req.Nom, req.Prenom)
	if apiErr != nil {
		h.logger.Warn("registration failed", slog.String("error", apiErr.Message))
		// 登録失敗は原因を問わず400で報告する
		writeDetail(w, http.StatusBadRequest, apiErr.Message)
		return
	}

	h.logger.Info("user registered", slog.String("user_id", result.User.ID))
	writeJSON(w, http.StatusOK, authResponse{
		Message:     "Inscription réussie",
		User:        result.User,
		AccessToken: tokenOrNull(result.AccessToken),
	})
}

// Login は資格情報を検証しアクセストークンを発行する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}

	result, apiErr := h.service.Login(r.Context(), req.Email, req.Password)
	if apiErr != nil {
		h.logger.Warn("login failed", slog.String("error", apiErr.Message))
		// ログイン失敗は原因を問わず401で報告する
		writeDetail(w, http.StatusUnauthorized, apiErr.Message)
		return
	}

	h.logger.Info("user logged in", slog.String("user_id", result.User.ID))
	writeJSON(w, http.StatusOK, authResponse{
		Message:     "Connexion réussie",
		User:        result.User,
		AccessToken: tokenOrNull(result.AccessToken),
	})
}

// Logout はセッションを無効化する。プラットフォームの結果に関わらず常に200を返す。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := middleware.AccessTokenFromContext(r.Context()); err == nil {
		h.service.Logout(r.Context(), token)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

// Profile は認証済みユーザーのプロフィールを返す。
// GET /profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Token invalide ou expiré")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.User{"user": user})
}
