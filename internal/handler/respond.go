// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// writeDetail は{"detail": ...}形式のエラーレスポンスを書き込む。
func writeDetail(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, map[string]string{"detail": detail})
}

// writeErrorPath は{"error": ..., "path": ...}形式のエラーレスポンスを書き込む。
// 未定義ルートと内部エラーで使用する。
func writeErrorPath(w http.ResponseWriter, statusCode int, message, path string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
		"path":  path,
	})
}

// statusForError はサービス層エラーの分類をHTTPステータスコードに変換する。
// ステータスコードへの変換はハンドラー層のこの一箇所でのみ行う。
func statusForError(apiErr *model.APIError) int {
	switch apiErr.Kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindAuth:
		return http.StatusUnauthorized
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		// 重複お気に入りは409ではなく400で報告する（既存APIの互換性維持）
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError はサービス層エラーをHTTPレスポンスに変換して書き込む。
func writeServiceError(w http.ResponseWriter, apiErr *model.APIError) {
	writeDetail(w, statusForError(apiErr), apiErr.Message)
}
