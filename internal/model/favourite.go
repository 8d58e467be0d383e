package model

// Favourite はユーザーと博物館の結合レコードを表す。
// (user_id, musee_id) の組はプラットフォーム側の一意制約により高々1行。
// date_ajout はプラットフォームが挿入時に付与するタイムスタンプ文字列で、
// 本システムはパースせずそのまま転送する。
type Favourite struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	MuseeID   string `json:"musee_id"`
	DateAjout string `json:"date_ajout,omitempty"`
}

// FavouriteWithMusee はお気に入り一覧用に博物館の全属性を結合したレコード。
// プラットフォームの埋め込みリソース名に合わせてJSONキーは musees となる。
type FavouriteWithMusee struct {
	ID        string `json:"id"`
	DateAjout string `json:"date_ajout,omitempty"`
	Musee     Musee  `json:"musees"`
}

// FavouriteSearchHit は検索結果用に縮約された博物館属性を結合したレコード。
type FavouriteSearchHit struct {
	ID        string       `json:"id"`
	DateAjout string       `json:"date_ajout,omitempty"`
	Musee     MuseeSummary `json:"musees"`
}
