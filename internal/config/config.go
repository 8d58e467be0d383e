// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 開発用フロントエンドのデフォルトCORSオリジン。
const (
	devOriginVite = "http://localhost:5173"
	devOriginNode = "http://localhost:3000"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Supabase
	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string
	SupabaseTimeout        time.Duration

	// Server
	ServerPort string

	// CORS
	FrontendURL    string
	ProductionURL  string
	CORSOriginsEnv string

	// Rate Limit（req/min/user）
	RateLimitGeneral    int
	RateLimitFavourites int

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はまとめてエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	if cfg.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}

	cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")
	if cfg.SupabaseAnonKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}

	cfg.SupabaseServiceRoleKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if cfg.SupabaseServiceRoleKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SupabaseTimeout = getEnvDuration("SUPABASE_TIMEOUT", 10*time.Second)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8000")
	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	cfg.ProductionURL = os.Getenv("PRODUCTION_URL")
	cfg.CORSOriginsEnv = os.Getenv("CORS_ORIGINS")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitFavourites = getEnvInt("RATE_LIMIT_FAVOURITES", 30)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// CORSOrigins はCORS許可オリジンの一覧を組み立てる。
// 固定の開発用2オリジンに、FRONTEND_URL、PRODUCTION_URL、
// CORS_ORIGINS（カンマ区切り）の値を順に加え、初出順を保って重複を除去する。
func (c *Config) CORSOrigins() []string {
	candidates := []string{devOriginVite, devOriginNode}

	if c.FrontendURL != "" {
		candidates = append(candidates, c.FrontendURL)
	}
	if c.ProductionURL != "" {
		candidates = append(candidates, c.ProductionURL)
	}
	for _, origin := range strings.Split(c.CORSOriginsEnv, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	origins := make([]string, 0, len(candidates))
	for _, origin := range candidates {
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}

	return origins
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
