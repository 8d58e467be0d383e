package repository

import (
	"context"
	"fmt"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// SupabaseMuseeRepo はMuseeRepositoryのSupabase実装。
type SupabaseMuseeRepo struct {
	client *supabase.Client
}

// NewSupabaseMuseeRepo はSupabaseMuseeRepoを生成する。
func NewSupabaseMuseeRepo(client *supabase.Client) *SupabaseMuseeRepo {
	return &SupabaseMuseeRepo{client: client}
}

// Exists はidentifiantの博物館行が存在するかを返す。
func (r *SupabaseMuseeRepo) Exists(ctx context.Context, identifiant string) (bool, error) {
	var rows []struct {
		Identifiant string `json:"identifiant"`
	}
	if _, err := r.client.From("musees").Select("identifiant").Eq("identifiant", identifiant).Get(ctx, &rows); err != nil {
		return false, fmt.Errorf("failed to check musee %s: %w", identifiant, err)
	}
	return len(rows) > 0, nil
}

// Insert は博物館行を挿入する。
func (r *SupabaseMuseeRepo) Insert(ctx context.Context, musee *model.Musee) error {
	return r.client.From("musees").Insert(ctx, musee, nil)
}
