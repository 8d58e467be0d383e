package repository

import (
	"context"
	"fmt"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// listSelect はお気に入り一覧用のselect式。博物館の全属性を埋め込みで取得する。
const listSelect = "id,date_ajout,musees(identifiant,nom_officiel,adresse,lieu,code_postal,ville," +
	"region,departement,telephone,url,categorie,domaine_thematique,themes,histoire,atout,artiste," +
	"personnage_phare,interet,protection_batiment,protection_espace,refmer,annee_creation," +
	"date_de_mise_a_jour,coordonnees)"

// searchSelect は検索用のselect式。縮約属性のみを取得し、
// !innerにより名称が一致しないお気に入りを結果から除外する。
const searchSelect = "id,date_ajout,musees!inner(identifiant,nom_officiel,adresse,lieu,ville," +
	"region,departement,categorie,themes)"

// SupabaseFavouriteRepo はFavouriteRepositoryのSupabase実装。
type SupabaseFavouriteRepo struct {
	client *supabase.Client
}

// NewSupabaseFavouriteRepo はSupabaseFavouriteRepoを生成する。
func NewSupabaseFavouriteRepo(client *supabase.Client) *SupabaseFavouriteRepo {
	return &SupabaseFavouriteRepo{client: client}
}

// Insert は結合行を挿入し、挿入された行を返す。
func (r *SupabaseFavouriteRepo) Insert(ctx context.Context, userID, museeID string) (*model.Favourite, error) {
	record := map[string]string{
		"user_id":  userID,
		"musee_id": museeID,
	}

	var inserted []model.Favourite
	if err := r.client.From("favourites").Insert(ctx, record, &inserted); err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return &inserted[0], nil
}

// Delete は両キーに一致する行を削除し、削除された行数を返す。
func (r *SupabaseFavouriteRepo) Delete(ctx context.Context, userID, museeID string) (int, error) {
	var deleted []model.Favourite
	err := r.client.From("favourites").
		Eq("user_id", userID).
		Eq("musee_id", museeID).
		Delete(ctx, &deleted)
	if err != nil {
		return 0, err
	}
	return len(deleted), nil
}

// ListWithMusee はユーザーの全お気に入りを博物館の全属性と結合して返す。
func (r *SupabaseFavouriteRepo) ListWithMusee(ctx context.Context, userID string) ([]model.FavouriteWithMusee, error) {
	var rows []model.FavouriteWithMusee
	_, err := r.client.From("favourites").
		Select(listSelect).
		Eq("user_id", userID).
		Get(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Exists は指定ペアのお気に入り行が存在するかを返す。
func (r *SupabaseFavouriteRepo) Exists(ctx context.Context, userID, museeID string) (bool, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := r.client.From("favourites").
		Select("id").
		Eq("user_id", userID).
		Eq("musee_id", museeID).
		Get(ctx, &rows)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Count はユーザーのお気に入り行の正確な件数を返す。
func (r *SupabaseFavouriteRepo) Count(ctx context.Context, userID string) (int, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	count, err := r.client.From("favourites").
		Select("id").
		Eq("user_id", userID).
		ExactCount().
		Get(ctx, &rows)
	if err != nil {
		return 0, err
	}
	// Content-Rangeが欠けるプラットフォーム実装へのフォールバック
	if count == supabase.CountNone {
		return len(rows), nil
	}
	return count, nil
}

// SearchByMuseeName は博物館の正式名称にtermを部分一致で含むお気に入りを返す。
// 空のtermは全件に一致する（空文字列は任意の文字列の部分文字列）。
func (r *SupabaseFavouriteRepo) SearchByMuseeName(ctx context.Context, userID, term string) ([]model.FavouriteSearchHit, error) {
	var rows []model.FavouriteSearchHit
	_, err := r.client.From("favourites").
		Select(searchSelect).
		Eq("user_id", userID).
		Ilike("musees.nom_officiel", "*"+term+"*").
		Get(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
