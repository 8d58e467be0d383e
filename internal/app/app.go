// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jerxmyy/workshop-musee-backend/internal/account"
	"github.com/Jerxmyy/workshop-musee-backend/internal/config"
	"github.com/Jerxmyy/workshop-musee-backend/internal/favourites"
	"github.com/Jerxmyy/workshop-musee-backend/internal/handler"
	"github.com/Jerxmyy/workshop-musee-backend/internal/logger"
	"github.com/Jerxmyy/workshop-musee-backend/internal/metrics"
	"github.com/Jerxmyy/workshop-musee-backend/internal/middleware"
	"github.com/Jerxmyy/workshop-musee-backend/internal/repository"
	"github.com/Jerxmyy/workshop-musee-backend/internal/security"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にもログを使えるようにデフォルトレベルで初期化する
	logger.SetupDefault(w, "info")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// Supabaseクライアントと全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. プラットフォームクライアントの初期化
	client := supabase.NewClient(supabase.Config{
		BaseURL:        cfg.SupabaseURL,
		AnonKey:        cfg.SupabaseAnonKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
	}, &http.Client{Timeout: cfg.SupabaseTimeout}, slog.Default())
	client.SetMetrics(collector)

	// 3. リポジトリの初期化
	userRepo := repository.NewSupabaseUserRepo(client)
	museeRepo := repository.NewSupabaseMuseeRepo(client)
	favouriteRepo := repository.NewSupabaseFavouriteRepo(client)

	// 4. ドメインサービスの初期化
	sanitizer := security.NewMuseeSanitizer()
	accountService := account.NewService(client, userRepo, slog.Default())
	favouriteService := favourites.NewService(favouriteRepo, museeRepo, sanitizer, slog.Default())

	// 5. ルーターの構築
	corsOrigins := cfg.CORSOrigins()
	slog.Info("CORS origins configured",
		slog.String("origins", strings.Join(corsOrigins, ", ")),
	)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitFavourites),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:      accountService,
		CORSAllowedOrigins: corsOrigins,
		RateLimiter:        rateLimiter,
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(registry),

		AccountService:   accountService,
		FavouriteService: favouriteService,

		Logger: slog.Default(),
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
