package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Jerxmyy/workshop-musee-backend/internal/account"
	"github.com/Jerxmyy/workshop-musee-backend/internal/favourites"
	"github.com/Jerxmyy/workshop-musee-backend/internal/middleware"
	"github.com/Jerxmyy/workshop-musee-backend/internal/repository"
	"github.com/Jerxmyy/workshop-musee-backend/internal/security"
	"github.com/Jerxmyy/workshop-musee-backend/internal/supabase"
)

// fakePlatform はGoTrueとPostgRESTの両面を模したインメモリ実装。
// 登録から削除までの一連のフローをネットワーク越しに検証するために使う。
type fakePlatform struct {
	mu sync.Mutex

	identities map[string]fakeIdentity // id -> identity
	tokens     map[string]string       // access_token -> identity id
	users      []map[string]any        // usersテーブル
	musees     []map[string]any        // museesテーブル
	favourites []map[string]any        // favouritesテーブル
	nextID     int
}

type fakeIdentity struct {
	id       string
	email    string
	password string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		identities: make(map[string]fakeIdentity),
		tokens:     make(map[string]string),
	}
}

func (p *fakePlatform) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", p.signup)
	mux.HandleFunc("POST /auth/v1/token", p.token)
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /auth/v1/user", p.getUser)
	mux.HandleFunc("DELETE /auth/v1/admin/users/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/rest/v1/users", p.restUsers)
	mux.HandleFunc("/rest/v1/musees", p.restMusees)
	mux.HandleFunc("/rest/v1/favourites", p.restFavourites)
	return mux
}

func (p *fakePlatform) signup(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&creds)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ident := range p.identities {
		if ident.email == creds.Email {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"code": "user_already_exists",
				"msg":  "User already registered",
			})
			return
		}
	}

	p.nextID++
	id := fmt.Sprintf("ident-%d", p.nextID)
	p.identities[id] = fakeIdentity{id: id, email: creds.Email, password: creds.Password}
	token := "tok-" + id
	p.tokens[token] = id

	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  token,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": "refresh-" + id,
		"user":          map[string]string{"id": id, "email": creds.Email},
	})
}

func (p *fakePlatform) token(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&creds)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ident := range p.identities {
		if ident.email == creds.Email && ident.password == creds.Password {
			token := "tok-" + ident.id
			p.tokens[token] = ident.id
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  token,
				"token_type":    "bearer",
				"expires_in":    3600,
				"refresh_token": "refresh-" + ident.id,
				"user":          map[string]string{"id": ident.id, "email": ident.email},
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{"error_description": "Invalid login credentials"})
}

func (p *fakePlatform) getUser(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.tokens[token]; ok {
		ident := p.identities[id]
		json.NewEncoder(w).Encode(map[string]string{"id": ident.id, "email": ident.email})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"msg": "invalid JWT"})
}

// matchesFilters はPostgRESTのeq.フィルタに行が一致するか判定する。
func matchesFilters(row map[string]any, query map[string][]string) bool {
	for key, values := range query {
		if key == "select" {
			continue
		}
		for _, v := range values {
			if op, val, found := strings.Cut(v, "."); found && op == "eq" {
				if fmt.Sprintf("%v", row[key]) != val {
					return false
				}
			}
		}
	}
	return true
}

func (p *fakePlatform) restUsers(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		var row map[string]any
		json.NewDecoder(r.Body).Decode(&row)
		p.users = append(p.users, row)
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		result := []map[string]any{}
		for _, row := range p.users {
			if matchesFilters(row, r.URL.Query()) {
				result = append(result, row)
			}
		}
		json.NewEncoder(w).Encode(result)
	}
}

func (p *fakePlatform) restMusees(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		var row map[string]any
		json.NewDecoder(r.Body).Decode(&row)
		for _, existing := range p.musees {
			if existing["identifiant"] == row["identifiant"] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]any{
					"code":    "23505",
					"message": `duplicate key value violates unique constraint "musees_pkey"`,
				})
				return
			}
		}
		p.musees = append(p.musees, row)
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		result := []map[string]any{}
		for _, row := range p.musees {
			if matchesFilters(row, r.URL.Query()) {
				result = append(result, row)
			}
		}
		json.NewEncoder(w).Encode(result)
	}
}

func (p *fakePlatform) museeByID(id any) map[string]any {
	for _, m := range p.musees {
		if m["identifiant"] == id {
			return m
		}
	}
	return nil
}

func (p *fakePlatform) restFavourites(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	query := r.URL.Query()

	switch r.Method {
	case http.MethodPost:
		var row map[string]any
		json.NewDecoder(r.Body).Decode(&row)
		for _, existing := range p.favourites {
			if existing["user_id"] == row["user_id"] && existing["musee_id"] == row["musee_id"] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]any{
					"code":    "23505",
					"message": `duplicate key value violates unique constraint "favourites_user_id_musee_id_key"`,
				})
				return
			}
		}
		p.nextID++
		row["id"] = fmt.Sprintf("fav-%d", p.nextID)
		row["date_ajout"] = "2024-06-01T12:00:00Z"
		p.favourites = append(p.favourites, row)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{row})

	case http.MethodDelete:
		deleted := []map[string]any{}
		kept := p.favourites[:0]
		for _, row := range p.favourites {
			if matchesFilters(row, query) {
				deleted = append(deleted, row)
			} else {
				kept = append(kept, row)
			}
		}
		p.favourites = kept
		json.NewEncoder(w).Encode(deleted)

	case http.MethodGet:
		selectExpr := query.Get("select")
		embed := strings.Contains(selectExpr, "musees")
		inner := strings.Contains(selectExpr, "musees!inner")

		// 埋め込みテーブルへのilikeフィルタ（musees.nom_officiel=ilike.*term*）
		namePattern := ""
		for key, values := range query {
			if key == "musees.nom_officiel" {
				for _, v := range values {
					if after, found := strings.CutPrefix(v, "ilike."); found {
						namePattern = strings.Trim(after, "*")
					}
				}
			}
		}

		result := []map[string]any{}
		for _, row := range p.favourites {
			if !matchesFilters(row, query) {
				continue
			}
			out := map[string]any{"id": row["id"], "date_ajout": row["date_ajout"]}
			if embed {
				musee := p.museeByID(row["musee_id"])
				if inner {
					name, _ := musee["nom_officiel"].(string)
					if !strings.Contains(strings.ToLower(name), strings.ToLower(namePattern)) {
						continue
					}
				}
				out["musees"] = musee
			}
			result = append(result, out)
		}

		if strings.Contains(r.Header.Get("Prefer"), "count=exact") {
			w.Header().Set("Content-Range", fmt.Sprintf("0-%d/%d", len(result), len(result)))
		}
		json.NewEncoder(w).Encode(result)
	}
}

// newIntegrationServer は実サービス・実クライアントを偽プラットフォームに接続した
// APIサーバーを組み立てる。
func newIntegrationServer(t *testing.T) *httptest.Server {
	t.Helper()

	platform := httptest.NewServer(newFakePlatform().handler())
	t.Cleanup(platform.Close)

	logger := discardLogger()
	client := supabase.NewClient(supabase.Config{
		BaseURL:        platform.URL,
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-role-key",
	}, platform.Client(), logger)

	userRepo := repository.NewSupabaseUserRepo(client)
	museeRepo := repository.NewSupabaseMuseeRepo(client)
	favRepo := repository.NewSupabaseFavouriteRepo(client)

	accountService := account.NewService(client, userRepo, logger)
	favouriteService := favourites.NewService(favRepo, museeRepo, security.NewMuseeSanitizer(), logger)

	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120, 30))
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		TokenVerifier:      accountService,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RateLimiter:        rl,
		AccountService:     accountService,
		FavouriteService:   favouriteService,
		Logger:             logger,
	})

	api := httptest.NewServer(router)
	t.Cleanup(api.Close)
	return api
}

// doJSON はJSONリクエストを送り、ステータスコードとデコード済みボディを返す。
func doJSON(t *testing.T, api *httptest.Server, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequest(method, api.URL+path, strings.NewReader(body))
	} else {
		req, err = http.NewRequest(method, api.URL+path, nil)
	}
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := api.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestIntegration_FullLifecycle(t *testing.T) {
	api := newIntegrationServer(t)

	museeData := `{"identifiant":"M0001","nom_officiel":"Musée du Louvre","ville":"Paris","categorie":"Beaux-Arts"}`

	// 登録
	status, body := doJSON(t, api, http.MethodPost, "/register", "",
		`{"email":"jean@musee.fr","password":"secret123","nom":"Dupont","prenom":"Jean"}`)
	if status != http.StatusOK {
		t.Fatalf("register: status = %d, body = %v", status, body)
	}
	if body["message"] != "Inscription réussie" {
		t.Fatalf("register message = %v", body["message"])
	}
	registeredID := body["user"].(map[string]any)["id"].(string)

	// 同一メールでの再登録は失敗する
	status, body = doJSON(t, api, http.MethodPost, "/register", "",
		`{"email":"jean@musee.fr","password":"secret123","nom":"Dupont","prenom":"Jean"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate register: status = %d, body = %v", status, body)
	}

	// ログイン
	status, body = doJSON(t, api, http.MethodPost, "/login", "",
		`{"email":"jean@musee.fr","password":"secret123"}`)
	if status != http.StatusOK {
		t.Fatalf("login: status = %d, body = %v", status, body)
	}
	token := body["access_token"].(string)
	if token == "" {
		t.Fatal("login returned empty token")
	}

	// プロフィールのIDは登録時のIDと一致する
	status, body = doJSON(t, api, http.MethodGet, "/profile", token, "")
	if status != http.StatusOK {
		t.Fatalf("profile: status = %d, body = %v", status, body)
	}
	if got := body["user"].(map[string]any)["id"]; got != registeredID {
		t.Fatalf("profile id = %v, want %v", got, registeredID)
	}

	// お気に入り追加（博物館行は遅延作成される）
	status, body = doJSON(t, api, http.MethodPost, "/favourites", token,
		`{"musee_id":"M0001","musee_data":`+museeData+`}`)
	if status != http.StatusOK {
		t.Fatalf("add favourite: status = %d, body = %v", status, body)
	}
	if body["message"] != "Musée ajouté aux favoris" {
		t.Fatalf("add message = %v", body["message"])
	}

	// 一覧は博物館の全属性込みで1件
	status, body = doJSON(t, api, http.MethodGet, "/favourites", token, "")
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("list: status = %d, body = %v", status, body)
	}
	listed := body["favourites"].([]any)[0].(map[string]any)["musees"].(map[string]any)
	if listed["nom_officiel"] != "Musée du Louvre" || listed["ville"] != "Paris" {
		t.Fatalf("listed musee = %v", listed)
	}

	// 部分一致検索
	status, body = doJSON(t, api, http.MethodGet, "/favourites/search?q=louvre", token, "")
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("search: status = %d, body = %v", status, body)
	}
	if body["search_term"] != "louvre" {
		t.Fatalf("search_term = %v", body["search_term"])
	}

	// 一致しない検索は空
	status, body = doJSON(t, api, http.MethodGet, "/favourites/search?q=orsay", token, "")
	if status != http.StatusOK || body["count"] != float64(0) {
		t.Fatalf("search miss: status = %d, body = %v", status, body)
	}

	// チェックとカウント
	status, body = doJSON(t, api, http.MethodGet, "/favourites/M0001/check", token, "")
	if status != http.StatusOK || body["is_favourite"] != true {
		t.Fatalf("check: status = %d, body = %v", status, body)
	}
	status, body = doJSON(t, api, http.MethodGet, "/favourites/count", token, "")
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("count: status = %d, body = %v", status, body)
	}

	// 重複追加は既にお気に入り
	status, body = doJSON(t, api, http.MethodPost, "/favourites", token,
		`{"musee_id":"M0001","musee_data":`+museeData+`}`)
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate add: status = %d, body = %v", status, body)
	}
	if body["detail"] != "Ce musée est déjà dans vos favoris" {
		t.Fatalf("duplicate detail = %v", body["detail"])
	}

	// 削除
	status, body = doJSON(t, api, http.MethodDelete, "/favourites/M0001", token, "")
	if status != http.StatusOK || body["message"] != "Musée retiré des favoris" {
		t.Fatalf("remove: status = %d, body = %v", status, body)
	}

	// 削除後は一覧空・カウント0・チェックfalse
	status, body = doJSON(t, api, http.MethodGet, "/favourites", token, "")
	if status != http.StatusOK || body["count"] != float64(0) {
		t.Fatalf("list after remove: status = %d, body = %v", status, body)
	}
	status, body = doJSON(t, api, http.MethodGet, "/favourites/count", token, "")
	if status != http.StatusOK || body["count"] != float64(0) {
		t.Fatalf("count after remove: status = %d, body = %v", status, body)
	}
	status, body = doJSON(t, api, http.MethodGet, "/favourites/M0001/check", token, "")
	if status != http.StatusOK || body["is_favourite"] != false {
		t.Fatalf("check after remove: status = %d, body = %v", status, body)
	}

	// 再削除は404
	status, body = doJSON(t, api, http.MethodDelete, "/favourites/M0001", token, "")
	if status != http.StatusNotFound {
		t.Fatalf("second remove: status = %d, body = %v", status, body)
	}
	if body["detail"] != "Favori non trouvé" {
		t.Fatalf("second remove detail = %v", body["detail"])
	}

	// ログアウトは常に成功
	status, body = doJSON(t, api, http.MethodPost, "/logout", token, "")
	if status != http.StatusOK || body["message"] != "Déconnexion réussie" {
		t.Fatalf("logout: status = %d, body = %v", status, body)
	}
}

func TestIntegration_BadCredentials(t *testing.T) {
	api := newIntegrationServer(t)

	doJSON(t, api, http.MethodPost, "/register", "",
		`{"email":"claire@musee.fr","password":"secret123","nom":"Martin","prenom":"Claire"}`)

	status, body := doJSON(t, api, http.MethodPost, "/login", "",
		`{"email":"claire@musee.fr","password":"wrongpass"}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["detail"] != "Identifiants invalides" {
		t.Errorf("detail = %v", body["detail"])
	}
}

func TestIntegration_ProtectedWithoutToken(t *testing.T) {
	api := newIntegrationServer(t)

	req, _ := http.NewRequest(http.MethodGet, api.URL+"/favourites", nil)
	resp, err := api.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func TestIntegration_SearchEmptyTermReturnsAll(t *testing.T) {
	api := newIntegrationServer(t)

	doJSON(t, api, http.MethodPost, "/register", "",
		`{"email":"paul@musee.fr","password":"secret123","nom":"Bernard","prenom":"Paul"}`)
	_, body := doJSON(t, api, http.MethodPost, "/login", "",
		`{"email":"paul@musee.fr","password":"secret123"}`)
	token := body["access_token"].(string)

	doJSON(t, api, http.MethodPost, "/favourites", token,
		`{"musee_id":"M0001","musee_data":{"identifiant":"M0001","nom_officiel":"Musée du Louvre"}}`)
	doJSON(t, api, http.MethodPost, "/favourites", token,
		`{"musee_id":"M0002","musee_data":{"identifiant":"M0002","nom_officiel":"Musée d'Orsay"}}`)

	status, body := doJSON(t, api, http.MethodGet, "/favourites/search?q=", token, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	// 空のtermは全件に一致する
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
}
