package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jerxmyy/workshop-musee-backend/internal/account"
	"github.com/Jerxmyy/workshop-musee-backend/internal/middleware"
	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

type mockAccountService struct {
	registerFunc func(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError)
	loginFunc    func(ctx context.Context, email, password string) (*account.AuthResult, *model.APIError)
	logoutTokens []string
}

func (m *mockAccountService) Register(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError) {
	return m.registerFunc(ctx, email, password, nom, prenom)
}

func (m *mockAccountService) Login(ctx context.Context, email, password string) (*account.AuthResult, *model.APIError) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAccountService) Logout(ctx context.Context, accessToken string) {
	m.logoutTokens = append(m.logoutTokens, accessToken)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return body
}

func TestRegister_Handler_Success(t *testing.T) {
	service := &mockAccountService{
		registerFunc: func(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError) {
			return &account.AuthResult{
				User:        model.User{ID: "user-1", Email: email, Nom: nom, Prenom: prenom},
				AccessToken: "tok-new",
			}, nil
		},
	}
	h := NewAuthHandler(service, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"email":"a@b.fr","password":"secret123","nom":"Dupont","prenom":"Jean"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["message"] != "Inscription réussie" {
		t.Errorf("message = %v", body["message"])
	}
	if body["access_token"] != "tok-new" {
		t.Errorf("access_token = %v", body["access_token"])
	}
	user := body["user"].(map[string]any)
	if user["nom"] != "Dupont" {
		t.Errorf("user = %v", user)
	}
}

func TestRegister_Handler_NoSession_TokenIsNull(t *testing.T) {
	// メール確認待ちでセッションが発行されない場合、access_tokenはnull
	service := &mockAccountService{
		registerFunc: func(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError) {
			return &account.AuthResult{
				User: model.User{ID: "user-1", Email: email, Nom: nom, Prenom: prenom},
			}, nil
		},
	}
	h := NewAuthHandler(service, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"email":"a@b.fr","password":"secret123","nom":"Dupont","prenom":"Jean"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	token, present := body["access_token"]
	if !present {
		t.Fatal("access_tokenキーがレスポンスに存在しない")
	}
	if token != nil {
		t.Errorf("access_token = %v, want null", token)
	}
}

func TestRegister_Handler_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing fields", `{"email":"a@b.fr"}`},
		{"bad email", `{"email":"not-an-email","password":"secret123","nom":"D","prenom":"J"}`},
		{"short password", `{"email":"a@b.fr","password":"abc","nom":"D","prenom":"J"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAccountService{
				registerFunc: func(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError) {
					t.Fatal("service should not be reached on validation failure")
					return nil, nil
				},
			}
			h := NewAuthHandler(service, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Register(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestRegister_Handler_ServiceError(t *testing.T) {
	service := &mockAccountService{
		registerFunc: func(ctx context.Context, email, password, nom, prenom string) (*account.AuthResult, *model.APIError) {
			return nil, model.NewRegistrationError("User already registered")
		},
	}
	h := NewAuthHandler(service, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"email":"a@b.fr","password":"secret123","nom":"Dupont","prenom":"Jean"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	// 登録失敗は種別を問わず400
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeBody(t, w)
	if body["detail"] != "Erreur d'inscription: User already registered" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestLogin_Handler_Success(t *testing.T) {
	service := &mockAccountService{
		loginFunc: func(ctx context.Context, email, password string) (*account.AuthResult, *model.APIError) {
			return &account.AuthResult{
				User:        model.User{ID: "user-1", Email: email},
				AccessToken: "tok-login",
			}, nil
		},
	}
	h := NewAuthHandler(service, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"a@b.fr","password":"secret123"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["message"] != "Connexion réussie" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestLogin_Handler_InvalidCredentials(t *testing.T) {
	service := &mockAccountService{
		loginFunc: func(ctx context.Context, email, password string) (*account.AuthResult, *model.APIError) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(service, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"a@b.fr","password":"wrong1"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	body := decodeBody(t, w)
	if body["detail"] != "Identifiants invalides" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestLogin_Handler_FailuresAllReport401(t *testing.T) {
	// ログイン失敗は資格情報不正に限らず、プロフィール欠落や
	// プラットフォーム障害であっても401で報告する
	tests := []struct {
		name       string
		err        *model.APIError
		wantDetail string
	}{
		{"profile missing", model.NewProfileMissingError(), "Profil utilisateur non trouvé"},
		{"upstream failure", model.NewUpstreamError("Erreur de connexion", "connection refused"), "Erreur de connexion: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAccountService{
				loginFunc: func(ctx context.Context, email, password string) (*account.AuthResult, *model.APIError) {
					return nil, tt.err
				},
			}
			h := NewAuthHandler(service, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/login",
				strings.NewReader(`{"email":"a@b.fr","password":"secret123"}`))
			w := httptest.NewRecorder()
			h.Login(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			body := decodeBody(t, w)
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %v, want %v", body["detail"], tt.wantDetail)
			}
		})
	}
}

func TestLogout_Handler_AlwaysSucceeds(t *testing.T) {
	service := &mockAccountService{}
	h := NewAuthHandler(service, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	ctx := middleware.ContextWithIdentity(req.Context(), &model.User{ID: "user-1"}, "tok-out")
	w := httptest.NewRecorder()
	h.Logout(w, req.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Déconnexion réussie" {
		t.Errorf("message = %v", body["message"])
	}
	if len(service.logoutTokens) != 1 || service.logoutTokens[0] != "tok-out" {
		t.Errorf("logout tokens = %v", service.logoutTokens)
	}
}

func TestProfile_Handler(t *testing.T) {
	h := NewAuthHandler(&mockAccountService{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	ctx := middleware.ContextWithIdentity(req.Context(), &model.User{ID: "user-1", Email: "a@b.fr", Nom: "Dupont", Prenom: "Jean"}, "tok")
	w := httptest.NewRecorder()
	h.Profile(w, req.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	if user["id"] != "user-1" || user["prenom"] != "Jean" {
		t.Errorf("user = %v", user)
	}
}
