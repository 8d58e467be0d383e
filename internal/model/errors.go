package model

import "fmt"

// ErrorKind はサービス層エラーの分類を表す。
// HTTPステータスへの変換はハンドラー層のみが行う。
type ErrorKind string

const (
	// KindValidation はリクエスト形状の不備を表す（トランスポート層で検出）。
	KindValidation ErrorKind = "validation"
	// KindAuth は認証失敗（無効なトークン、誤った資格情報）を表す。
	KindAuth ErrorKind = "auth"
	// KindNotFound はプロフィール・お気に入り・博物館の不在を表す。
	KindNotFound ErrorKind = "not_found"
	// KindConflict はお気に入りの重複登録を表す。
	KindConflict ErrorKind = "conflict"
	// KindUpstream はリモートプラットフォーム呼び出し自体の失敗を表す。
	KindUpstream ErrorKind = "upstream"
)

// APIError はサービス層が返す分類済みエラー。
// Messageはクライアントにそのまま返すことを前提としたテキストで、
// プラットフォーム由来のエラーメッセージを含む場合がある（仕様上サニタイズしない）。
type APIError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// NewRegistrationError は登録失敗エラーを生成する。
// 原因（重複メール等）はプラットフォームのメッセージをそのまま保持し、分類しない。
func NewRegistrationError(detail string) *APIError {
	return &APIError{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("Erreur d'inscription: %s", detail),
	}
}

// NewInvalidCredentialsError は資格情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Message: "Identifiants invalides",
	}
}

// NewProfileMissingError はセッション発行済みだがプロフィール行が存在しない
// 不整合状態（部分登録）のエラーを生成する。
func NewProfileMissingError() *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: "Profil utilisateur non trouvé",
	}
}

// NewUserNotFoundError はプロフィール行が見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: "Utilisateur non trouvé",
	}
}

// NewInvalidTokenError は無効または期限切れトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Message: "Token invalide ou expiré",
	}
}

// NewAlreadyFavouritedError はお気に入りの重複登録エラーを生成する。
func NewAlreadyFavouritedError() *APIError {
	return &APIError{
		Kind:    KindConflict,
		Message: "Ce musée est déjà dans vos favoris",
	}
}

// NewFavouriteNotFoundError は削除対象のお気に入りが存在しない場合のエラーを生成する。
func NewFavouriteNotFoundError() *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: "Favori non trouvé",
	}
}

// NewUpstreamError はプラットフォーム呼び出し失敗のエラーを生成する。
// contextには操作の説明（フランス語）、detailにはプラットフォームのメッセージを渡す。
func NewUpstreamError(context, detail string) *APIError {
	return &APIError{
		Kind:    KindUpstream,
		Message: fmt.Sprintf("%s: %s", context, detail),
	}
}
