package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AuthUser はGoTrueが返す認証アイデンティティを表す。
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession はGoTrueが発行したセッションを表す。
// AccessTokenは不透明なベアラートークンで、本システムはパースしない。
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *AuthUser `json:"user"`
}

// credentials はメール・パスワードのリクエストボディ。
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signUpResponse はサインアップのレスポンス。
// メール確認が無効な場合はセッション込み、有効な場合はユーザーオブジェクト単体が返る。
type signUpResponse struct {
	AuthSession
	AuthUser
}

// SignUp はメール・パスワードで認証アイデンティティを作成する。
// メール確認が無効なプロジェクトではセッションも発行される（その場合session != nil）。
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthUser, *AuthSession, error) {
	endpoint := c.config.BaseURL + "/auth/v1/signup"
	headers := map[string]string{"apikey": c.config.AnonKey}

	body, _, err := c.send(ctx, "auth", http.MethodPost, endpoint, headers, credentials{Email: email, Password: password})
	if err != nil {
		return nil, nil, err
	}

	var resp signUpResponse
	if err := decodeInto(body, &resp); err != nil {
		return nil, nil, err
	}

	// セッション込みのレスポンスではユーザーはuserフィールドに入る
	if resp.AccessToken != "" && resp.AuthSession.User != nil {
		session := resp.AuthSession
		return session.User, &session, nil
	}

	// メール確認有効時はトップレベルがユーザーオブジェクト
	if resp.AuthUser.ID != "" {
		user := resp.AuthUser
		return &user, nil, nil
	}

	return nil, nil, fmt.Errorf("サインアップレスポンスにユーザーが含まれていません")
}

// SignInWithPassword はパスワードグラントでセッションを発行する。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	endpoint := c.config.BaseURL + "/auth/v1/token?grant_type=password"
	headers := map[string]string{"apikey": c.config.AnonKey}

	body, _, err := c.send(ctx, "auth", http.MethodPost, endpoint, headers, credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var session AuthSession
	if err := decodeInto(body, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" || session.User == nil {
		return nil, fmt.Errorf("トークンレスポンスにセッションが含まれていません")
	}

	return &session, nil
}

// SignOut はトークンに紐づくセッションをプラットフォーム側で無効化する。
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	endpoint := c.config.BaseURL + "/auth/v1/logout"
	headers := map[string]string{
		"apikey":        c.config.AnonKey,
		"Authorization": "Bearer " + accessToken,
	}

	_, _, err := c.send(ctx, "auth", http.MethodPost, endpoint, headers, nil)
	return err
}

// GetUser はトークンを検証し、有効であれば対象の認証アイデンティティを返す。
func (c *Client) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	endpoint := c.config.BaseURL + "/auth/v1/user"
	headers := map[string]string{
		"apikey":        c.config.AnonKey,
		"Authorization": "Bearer " + accessToken,
	}

	body, _, err := c.send(ctx, "auth", http.MethodGet, endpoint, headers, nil)
	if err != nil {
		return nil, err
	}

	var user AuthUser
	if err := decodeInto(body, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("ユーザーレスポンスにIDが含まれていません")
	}

	return &user, nil
}

// AdminDeleteUser はサービスロール権限で認証アイデンティティを削除する。
// プロフィール挿入に失敗した部分登録の補償削除にのみ使う。
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	endpoint := c.config.BaseURL + "/auth/v1/admin/users/" + url.PathEscape(userID)
	headers := map[string]string{
		"apikey":        c.config.ServiceRoleKey,
		"Authorization": "Bearer " + c.config.ServiceRoleKey,
	}

	_, _, err := c.send(ctx, "auth", http.MethodDelete, endpoint, headers, nil)
	return err
}
