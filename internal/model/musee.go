package model

// Coordonnees は博物館の位置座標を表す。
type Coordonnees struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Musee は博物館の静的リファレンス情報を表す。
// identifiant（MuseoFileデータセットの識別子）をキーとし、初回のお気に入り登録時に
// 遅延アップサートされる。一度作成された記述属性に対する更新経路は存在しない。
type Musee struct {
	Identifiant        string       `json:"identifiant"`
	NomOfficiel        string       `json:"nom_officiel,omitempty"`
	Adresse            string       `json:"adresse,omitempty"`
	Lieu               string       `json:"lieu,omitempty"`
	CodePostal         string       `json:"code_postal,omitempty"`
	Ville              string       `json:"ville,omitempty"`
	Region             string       `json:"region,omitempty"`
	Departement        string       `json:"departement,omitempty"`
	Telephone          string       `json:"telephone,omitempty"`
	URL                string       `json:"url,omitempty"`
	Categorie          string       `json:"categorie,omitempty"`
	DomaineThematique  string       `json:"domaine_thematique,omitempty"`
	Themes             string       `json:"themes,omitempty"`
	Histoire           string       `json:"histoire,omitempty"`
	Atout              string       `json:"atout,omitempty"`
	Artiste            string       `json:"artiste,omitempty"`
	PersonnagePhare    string       `json:"personnage_phare,omitempty"`
	Interet            string       `json:"interet,omitempty"`
	ProtectionBatiment string       `json:"protection_batiment,omitempty"`
	ProtectionEspace   string       `json:"protection_espace,omitempty"`
	Refmer             string       `json:"refmer,omitempty"`
	AnneeCreation      string       `json:"annee_creation,omitempty"`
	DateDeMiseAJour    string       `json:"date_de_mise_a_jour,omitempty"`
	Coordonnees        *Coordonnees `json:"coordonnees,omitempty"`
}

// MuseeSummary は検索結果用の縮約された博物館属性セット。
// 一覧取得（全属性）と異なり、検索では表示に必要な属性のみを返す。
type MuseeSummary struct {
	Identifiant string `json:"identifiant"`
	NomOfficiel string `json:"nom_officiel,omitempty"`
	Adresse     string `json:"adresse,omitempty"`
	Lieu        string `json:"lieu,omitempty"`
	Ville       string `json:"ville,omitempty"`
	Region      string `json:"region,omitempty"`
	Departement string `json:"departement,omitempty"`
	Categorie   string `json:"categorie,omitempty"`
	Themes      string `json:"themes,omitempty"`
}
