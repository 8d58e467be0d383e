// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MuseeSanitizerService はクライアントから渡される博物館ペイロードのテキスト属性を
// サニタイズし、格納データを再配信する際のXSSリスクからユーザーを保護する。
// 博物館の属性は純粋なテキストでありHTMLを含む正当な理由がないため、
// bluemondayのStrictPolicy（全タグ除去）を使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Jerxmyy/workshop-musee-backend/internal/model"
)

// MuseeSanitizerService は博物館ペイロードのサニタイズ機能のインターフェースを定義する。
// 博物館行の遅延アップサート直前に使用される。
type MuseeSanitizerService interface {
	// SanitizeMusee は博物館の全テキスト属性からHTMLタグを除去する。
	// 座標などの数値属性は変更しない。同一入力に対して常に同一出力を返す（冪等）。
	SanitizeMusee(musee *model.Musee)
}

// museeSanitizer はMuseeSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type museeSanitizer struct {
	policy *bluemonday.Policy
}

// NewMuseeSanitizer はMuseeSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たず、すべてのHTML要素を除去する。
func NewMuseeSanitizer() *museeSanitizer {
	return &museeSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeMusee は博物館の全テキスト属性からHTMLタグを除去する。
func (s *museeSanitizer) SanitizeMusee(musee *model.Musee) {
	fields := []*string{
		&musee.NomOfficiel,
		&musee.Adresse,
		&musee.Lieu,
		&musee.CodePostal,
		&musee.Ville,
		&musee.Region,
		&musee.Departement,
		&musee.Telephone,
		&musee.URL,
		&musee.Categorie,
		&musee.DomaineThematique,
		&musee.Themes,
		&musee.Histoire,
		&musee.Atout,
		&musee.Artiste,
		&musee.PersonnagePhare,
		&musee.Interet,
		&musee.ProtectionBatiment,
		&musee.ProtectionEspace,
		&musee.Refmer,
		&musee.AnneeCreation,
		&musee.DateDeMiseAJour,
	}
	// bluemondayはHTMLエスケープ済みテキストを返すため、
	// プレーンテキストとして格納する前にエンティティ（&#39;等）を戻す。
	for _, f := range fields {
		*f = strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(*f)))
	}
}
