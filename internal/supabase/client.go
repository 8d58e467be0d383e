// Package supabase はSupabaseプラットフォームのHTTPクライアントを提供する。
// GoTrue認証API（/auth/v1）とPostgRESTテーブルAPI（/rest/v1）の呼び出しを含む。
// クライアントは状態を持たず、同一インスタンスを複数goroutineから安全に利用できる。
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MetricsRecorder はプラットフォーム呼び出しのメトリクス記録インターフェース。
// surfaceは "auth" または "rest"。
type MetricsRecorder interface {
	RecordUpstreamRequest(surface string, statusCode int, duration time.Duration)
}

// Config はクライアントの接続設定。
type Config struct {
	// BaseURL はSupabaseプロジェクトのURL（例: https://xyz.supabase.co）。
	BaseURL string
	// AnonKey は認証APIに使う匿名キー。
	AnonKey string
	// ServiceRoleKey はテーブル操作と管理APIに使うサービスロールキー。
	ServiceRoleKey string
}

// Client はSupabase APIのクライアント。
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(config Config, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SetMetrics はメトリクスレコーダーを設定する。nilの場合は記録しない。
func (c *Client) SetMetrics(rec MetricsRecorder) {
	c.metrics = rec
}

// send はJSONリクエストを送信し、レスポンスボディとレスポンスを返す。
// 2xx以外のステータスはparseErrorで*Errorに変換して返す。
func (c *Client) send(ctx context.Context, surface, method, url string, headers map[string]string, body any) ([]byte, *http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Supabase APIの呼び出しに失敗しました",
			slog.String("surface", surface),
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(surface, resp.StatusCode, time.Since(start))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp.StatusCode, respBody)
		c.logger.Warn("Supabase APIがエラーステータスを返しました",
			slog.String("surface", surface),
			slog.String("method", method),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return respBody, resp, apiErr
	}

	return respBody, resp, nil
}

// decodeInto はレスポンスボディをdestにデコードする。destがnilの場合は何もしない。
func decodeInto(body []byte, dest any) error {
	if dest == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}
