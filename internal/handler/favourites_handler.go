package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jerxmyy/workshop-musee-backend/internal/middleware"
	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

// FavouriteServiceInterface はお気に入りハンドラーが必要とするサービスインターフェース。
type FavouriteServiceInterface interface {
	AddFavourite(ctx context.Context, userID, museeID string, museeData model.Musee) (*model.Favourite, *model.APIError)
	RemoveFavourite(ctx context.Context, userID, museeID string) *model.APIError
	ListFavourites(ctx context.Context, userID string) ([]model.FavouriteWithMusee, *model.APIError)
	IsFavourite(ctx context.Context, userID, museeID string) (bool, *model.APIError)
	CountFavourites(ctx context.Context, userID string) (int, *model.APIError)
	SearchFavourites(ctx context.Context, userID, term string) ([]model.FavouriteSearchHit, *model.APIError)
}

// FavouritesHandler はお気に入り関連のHTTPハンドラー。
type FavouritesHandler struct {
	service FavouriteServiceInterface
	logger  *slog.Logger
}

// NewFavouritesHandler はFavouritesHandlerを生成する。
func NewFavouritesHandler(service FavouriteServiceInterface, logger *slog.Logger) *FavouritesHandler {
	return &FavouritesHandler{
		service: service,
		logger:  logger,
	}
}

// favouriteCreateRequest はPOST /favouritesのリクエストボディ。
// musee_dataは博物館行が未登録の場合の遅延作成に使われる。
type favouriteCreateRequest struct {
	MuseeID   string      `json:"musee_id" validate:"required"`
	MuseeData model.Musee `json:"musee_data"`
}

// currentUser はコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアの後に呼ばれる前提のため、失敗時は401を書き込んでfalseを返す。
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Token invalide ou expiré")
		return nil, false
	}
	return user, true
}

// Add は博物館をお気に入りに追加する。
// POST /favourites
func (h *FavouritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req favouriteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}

	favourite, apiErr := h.service.AddFavourite(r.Context(), user.ID, req.MuseeID, req.MuseeData)
	if apiErr != nil {
		writeServiceError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Musée ajouté aux favoris",
		"favourite": favourite,
	})
}

// Remove はお気に入りを削除する。
// DELETE /favourites/{musee_id}
func (h *FavouritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	museeID := chi.URLParam(r, "musee_id")
	if apiErr := h.service.RemoveFavourite(r.Context(), user.ID, museeID); apiErr != nil {
		writeServiceError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Musée retiré des favoris"})
}

// List はユーザーの全お気に入りを博物館の全属性と共に返す。
// GET /favourites
func (h *FavouritesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	favourites, apiErr := h.service.ListFavourites(r.Context(), user.ID)
	if apiErr != nil {
		writeServiceError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"favourites": favourites,
		"count":      len(favourites),
	})
}

// Check は指定博物館がお気に入りに含まれるかを返す。
// GET /favourites/{musee_id}/check
func (h *FavouritesHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	museeID := chi.URLParam(r, "musee_id")
	isFavourite, apiErr := h.service.IsFavourite(r.Context(), user.ID, museeID)
	if apiErr != nil {
		writeServiceError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"is_favourite": isFavourite})
}

// Count はお気に入りの件数を返す。
// GET /favourites/count
func (h *FavouritesHandler) Count(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, apiErr := h.service.CountFavourites(r.Context(), user.ID)
	if apiErr != nil {
		writeServiceError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Search はお気に入りを博物館の正式名称で部分一致検索する。
// GET /favourites/search?q=term
func (h *FavouritesHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	term := r.URL.Query().Get("q")
	hits, apiErr := h.service.SearchFavourites(r.Context(), user.ID, term)
	if apiErr != nil {
		writeServiceError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"favourites":  hits,
		"search_term": term,
		"count":       len(hits),
	})
}
