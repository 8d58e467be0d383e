// Package account はユーザー登録・認証に関するビジネスロジックを提供する。
// 認証情報の検証とトークン発行はすべてリモートプラットフォーム（GoTrue）に委譲し、
// 各操作は成功ペイロードか分類済みエラーのどちらかを返す（panicさせない）。
package account

import (
	"context"
	"log/slog"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
	"github.com/Jerxmyy/workshop-musee-backend/internal/repository"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// AuthAPI は認証サービスが必要とするプラットフォーム認証APIのインターフェース。
// *supabase.Clientが実装する。
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string) (*supabase.AuthUser, *supabase.AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*supabase.AuthUser, error)
	AdminDeleteUser(ctx context.Context, userID string) error
}

// Service はアカウント操作のビジネスロジックを提供する。
type Service struct {
	auth   AuthAPI
	users  repository.UserRepository
	logger *slog.Logger
}

// NewService はServiceを生成する。
func NewService(auth AuthAPI, users repository.UserRepository, logger *slog.Logger) *Service {
	return &Service{
		auth:   auth,
		users:  users,
		logger: logger,
	}
}

// AuthResult は登録・ログイン成功時の結果。
// AccessTokenはプラットフォームがセッションを発行しなかった場合
// （メール確認待ち等）に空になる。
type AuthResult struct {
	User        model.User
	AccessToken string
}

// Register は認証アイデンティティを作成し、続けてプロフィール行を挿入する。
// 2つの書き込みはトランザクションで括られない。プロフィール挿入に失敗した場合は
// 孤児となった認証アイデンティティの補償削除をベストエフォートで試みる。
func (s *Service) Register(ctx context.Context, email, password, nom, prenom string) (*AuthResult, *model.APIError) {
	authUser, session, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, model.NewRegistrationError(upstreamMessage(err))
	}

	user := model.User{
		ID:     authUser.ID,
		Email:  email,
		Nom:    nom,
		Prenom: prenom,
	}

	if err := s.users.Insert(ctx, &user); err != nil {
		s.logger.Error("profile insert failed after identity creation",
			slog.String("user_id", authUser.ID),
			slog.String("error", err.Error()),
		)
		// 補償削除。失敗してもログに残すのみで、元のエラーを報告する。
		if delErr := s.auth.AdminDeleteUser(ctx, authUser.ID); delErr != nil {
			s.logger.Error("compensating identity delete failed, orphan identity remains",
				slog.String("user_id", authUser.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, model.NewRegistrationError(upstreamMessage(err))
	}

	result := &AuthResult{User: user}
	if session != nil {
		result.AccessToken = session.AccessToken
	}
	return result, nil
}

// Login は資格情報をセッションと交換し、プロフィール行を取得する。
// セッションは発行されたがプロフィール行が無い場合（部分登録の不整合状態）は
// ProfileMissingを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, *model.APIError) {
	session, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		if apiErr, ok := supabase.AsError(err); ok && apiErr.StatusCode < 500 {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, model.NewUpstreamError("Erreur de connexion", upstreamMessage(err))
	}

	profile, err := s.users.FindByID(ctx, session.User.ID)
	if err != nil {
		return nil, model.NewUpstreamError("Erreur de connexion", upstreamMessage(err))
	}
	if profile == nil {
		return nil, model.NewProfileMissingError()
	}

	return &AuthResult{User: *profile, AccessToken: session.AccessToken}, nil
}

// Logout はトークンに紐づくセッションの無効化をプラットフォームに依頼する。
// クライアントから見たログアウトはステートレスであり、プラットフォーム呼び出しの
// 結果に関わらず常に成功を報告する（失敗はログのみ）。
func (s *Service) Logout(ctx context.Context, accessToken string) {
	if err := s.auth.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("platform sign-out failed, reporting success anyway",
			slog.String("error", err.Error()),
		)
	}
}

// VerifyToken はトークンの有効性をプラットフォームに問い合わせ、
// 有効であれば対象アイデンティティのIDを返す。
func (s *Service) VerifyToken(ctx context.Context, accessToken string) (string, *model.APIError) {
	user, err := s.auth.GetUser(ctx, accessToken)
	if err != nil {
		return "", model.NewInvalidTokenError()
	}
	return user.ID, nil
}

// GetProfile はIDでプロフィール行を取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, *model.APIError) {
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, model.NewUpstreamError("Erreur lors de la récupération du profil", upstreamMessage(err))
	}
	if profile == nil {
		return nil, model.NewUserNotFoundError()
	}
	return profile, nil
}

// upstreamMessage はプラットフォームのエラーメッセージをそのまま取り出す。
// 仕様上、クライアントに転送するメッセージはサニタイズしない。
func upstreamMessage(err error) string {
	if apiErr, ok := supabase.AsError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}
