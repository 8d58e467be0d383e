package handler

import "net/http"

const serviceName = "MuseoFile API"

// Root はサービスの稼働を示すルートエンドポイント。
// GET /
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "MuseoFile API - Service en cours d'exécution",
	})
}

// Health はヘルスチェックエンドポイント。コンテナの死活監視に使用する。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// PublicHealth は公開ヘルスチェックエンドポイント。
// GET /public/health
func PublicHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"public": true,
	})
}
