// Package favourites はお気に入り（ユーザーと博物館の結合）のビジネスロジックを提供する。
package favourites

import (
	"context"
	"log/slog"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
	"github.com/Jerxmyy/workshop-musee-backend/internal/repository"
	"github.com/Jerxmyy/workshop-musee-backend/internal/security"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// Service はお気に入り操作のビジネスロジックを提供する。
type Service struct {
	favourites repository.FavouriteRepository
	musees     repository.MuseeRepository
	sanitizer  security.MuseeSanitizerService
	logger     *slog.Logger
}

// NewService はServiceを生成する。
func NewService(favourites repository.FavouriteRepository, musees repository.MuseeRepository, sanitizer security.MuseeSanitizerService, logger *slog.Logger) *Service {
	return &Service{
		favourites: favourites,
		musees:     musees,
		sanitizer:  sanitizer,
		logger:     logger,
	}
}

// AddFavourite は博物館をユーザーのお気に入りに追加する。
// 博物館行が未登録の場合、クライアントから渡された属性をサニタイズして先に登録する
// （museesテーブルはお気に入り登録を通じて遅延的に構築される）。
func (s *Service) AddFavourite(ctx context.Context, userID, museeID string, museeData model.Musee) (*model.Favourite, *model.APIError) {
	museeData.Identifiant = museeID

	exists, err := s.musees.Exists(ctx, museeID)
	if err != nil {
		return nil, model.NewUpstreamError("Erreur lors de l'ajout du favori", upstreamMessage(err))
	}
	if !exists {
		s.sanitizer.SanitizeMusee(&museeData)
		if err := s.musees.Insert(ctx, &museeData); err != nil {
			// 同一博物館の同時追加による競合。行が揃ったことに変わりはないので続行する。
			if apiErr, ok := supabase.AsError(err); ok && apiErr.IsDuplicateKey() {
				s.logger.Debug("musee insert raced with concurrent request",
					slog.String("musee_id", museeID),
				)
			} else {
				return nil, model.NewUpstreamError("Erreur lors de l'ajout du favori", upstreamMessage(err))
			}
		}
	}

	favourite, err := s.favourites.Insert(ctx, userID, museeID)
	if err != nil {
		if apiErr, ok := supabase.AsError(err); ok && apiErr.IsDuplicateKey() {
			return nil, model.NewAlreadyFavouritedError()
		}
		return nil, model.NewUpstreamError("Erreur lors de l'ajout du favori", upstreamMessage(err))
	}

	s.logger.Info("favourite added",
		slog.String("user_id", userID),
		slog.String("musee_id", museeID),
	)
	return favourite, nil
}

// RemoveFavourite はお気に入りを削除する。対象行が存在しない場合はNotFoundを返す。
func (s *Service) RemoveFavourite(ctx context.Context, userID, museeID string) *model.APIError {
	deleted, err := s.favourites.Delete(ctx, userID, museeID)
	if err != nil {
		return model.NewUpstreamError("Erreur lors de la suppression du favori", upstreamMessage(err))
	}
	if deleted == 0 {
		return model.NewFavouriteNotFoundError()
	}

	s.logger.Info("favourite removed",
		slog.String("user_id", userID),
		slog.String("musee_id", museeID),
	)
	return nil
}

// ListFavourites はユーザーの全お気に入りを博物館の全属性と結合して返す。
// お気に入りが無い場合も空スライスを返す（nilにしない）。
func (s *Service) ListFavourites(ctx context.Context, userID string) ([]model.FavouriteWithMusee, *model.APIError) {
	rows, err := s.favourites.ListWithMusee(ctx, userID)
	if err != nil {
		return nil, model.NewUpstreamError("Erreur lors de la récupération des favoris", upstreamMessage(err))
	}
	if rows == nil {
		rows = []model.FavouriteWithMusee{}
	}
	return rows, nil
}

// IsFavourite は指定博物館がユーザーのお気に入りに含まれるかを返す。
func (s *Service) IsFavourite(ctx context.Context, userID, museeID string) (bool, *model.APIError) {
	exists, err := s.favourites.Exists(ctx, userID, museeID)
	if err != nil {
		return false, model.NewUpstreamError("Erreur lors de la vérification du favori", upstreamMessage(err))
	}
	return exists, nil
}

// CountFavourites はユーザーのお気に入り件数を返す。
func (s *Service) CountFavourites(ctx context.Context, userID string) (int, *model.APIError) {
	count, err := s.favourites.Count(ctx, userID)
	if err != nil {
		return 0, model.NewUpstreamError("Erreur lors du comptage des favoris", upstreamMessage(err))
	}
	return count, nil
}

// SearchFavourites はお気に入りを博物館の正式名称で部分一致検索する。
func (s *Service) SearchFavourites(ctx context.Context, userID, term string) ([]model.FavouriteSearchHit, *model.APIError) {
	hits, err := s.favourites.SearchByMuseeName(ctx, userID, term)
	if err != nil {
		return nil, model.NewUpstreamError("Erreur lors de la recherche dans les favoris", upstreamMessage(err))
	}
	if hits == nil {
		hits = []model.FavouriteSearchHit{}
	}
	return hits, nil
}

func upstreamMessage(err error) string {
	if apiErr, ok := supabase.AsError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}
