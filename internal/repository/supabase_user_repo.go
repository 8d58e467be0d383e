package repository

import (
	"context"
	"fmt"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// SupabaseUserRepo はUserRepositoryのSupabase実装。
type SupabaseUserRepo struct {
	client *supabase.Client
}

// NewSupabaseUserRepo はSupabaseUserRepoを生成する。
func NewSupabaseUserRepo(client *supabase.Client) *SupabaseUserRepo {
	return &SupabaseUserRepo{client: client}
}

// Insert はプロフィール行を挿入する。
func (r *SupabaseUserRepo) Insert(ctx context.Context, user *model.User) error {
	return r.client.From("users").Insert(ctx, user, nil)
}

// FindByID はIDでプロフィール行を検索する。存在しない場合は(nil, nil)を返す。
func (r *SupabaseUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var users []model.User
	if _, err := r.client.From("users").Select("*").Eq("id", id).Get(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", id, err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}
