// Package model はドメインモデルを定義する。
package model

// User はユーザープロフィールを表す。
// 認証情報（パスワード等）はプラットフォーム側が管理し、本システムは保持しない。
// IDはプラットフォームが発行した認証アイデンティティIDと同一であり、
// favouritesテーブルの結合キーとして使われる。プロフィールは登録後イミュータブル。
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}
