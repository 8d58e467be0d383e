// Package repository はリモートプラットフォーム上のテーブルへのアクセスを提供する。
// 本システムはローカルに永続状態を持たず、全テーブルはSupabase（PostgREST）側にある。
package repository

import (
	"context"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

// UserRepository はusersテーブル（プロフィール行）へのアクセスインターフェース。
type UserRepository interface {
	// Insert はプロフィール行を挿入する。
	Insert(ctx context.Context, user *model.User) error
	// FindByID はIDでプロフィール行を検索する。存在しない場合は(nil, nil)を返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// MuseeRepository はmuseesテーブルへのアクセスインターフェース。
type MuseeRepository interface {
	// Exists はidentifiantの博物館行が存在するかを返す。
	Exists(ctx context.Context, identifiant string) (bool, error)
	// Insert は博物館行を挿入する。
	Insert(ctx context.Context, musee *model.Musee) error
}

// FavouriteRepository はfavouritesテーブルへのアクセスインターフェース。
// (user_id, musee_id) の一意制約はプラットフォーム側でのみ強制される。
type FavouriteRepository interface {
	// Insert は結合行を挿入し、挿入された行を返す。
	// 重複ペアの場合はプラットフォームの一意制約違反エラーがそのまま返る。
	Insert(ctx context.Context, userID, museeID string) (*model.Favourite, error)
	// Delete は両キーに一致する行を削除し、削除された行数を返す。
	Delete(ctx context.Context, userID, museeID string) (int, error)
	// ListWithMusee はユーザーの全お気に入りを博物館の全属性と結合して返す。
	// 並び順はプラットフォームの返却順のまま（明示的なソートは課さない）。
	ListWithMusee(ctx context.Context, userID string) ([]model.FavouriteWithMusee, error)
	// Exists は指定ペアのお気に入り行が存在するかを返す。
	Exists(ctx context.Context, userID, museeID string) (bool, error)
	// Count はユーザーのお気に入り行の正確な件数を返す。
	Count(ctx context.Context, userID string) (int, error)
	// SearchByMuseeName は博物館の正式名称にtermを部分一致（大文字小文字無視）で含む
	// お気に入りを、縮約された博物館属性と結合して返す。
	SearchByMuseeName(ctx context.Context, userID, term string) ([]model.FavouriteSearchHit, error)
}
