package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CountNone はカウント未要求を表すGetの戻り値。
const CountNone = -1

// filter はPostgRESTのカラムフィルタ（col=op.value）を表す。
type filter struct {
	column string
	op     string
	value  string
}

// Query はPostgRESTテーブルAPIへの1回のリクエストを組み立てるビルダー。
// テーブル操作はすべてサービスロールキーで実行する。
type Query struct {
	client     *Client
	table      string
	selectExpr string
	filters    []filter
	exactCount bool
}

// From は指定テーブルに対するQueryを生成する。
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

// Select は取得カラムを指定する。埋め込みリソース（例: musees(...)）も指定できる。
func (q *Query) Select(columns string) *Query {
	q.selectExpr = columns
	return q
}

// Eq は等価フィルタを追加する。
func (q *Query) Eq(column, value string) *Query {
	q.filters = append(q.filters, filter{column: column, op: "eq", value: value})
	return q
}

// Ilike は大文字小文字を無視したパターンフィルタを追加する。
// 部分一致にはパターンを *term* の形で渡す。
func (q *Query) Ilike(column, pattern string) *Query {
	q.filters = append(q.filters, filter{column: column, op: "ilike", value: pattern})
	return q
}

// ExactCount は行数の正確なカウントを要求する。Getの戻り値で返される。
func (q *Query) ExactCount() *Query {
	q.exactCount = true
	return q
}

// buildURL はリクエストURLを組み立てる。
func (q *Query) buildURL() string {
	params := url.Values{}
	if q.selectExpr != "" {
		params.Set("select", q.selectExpr)
	}
	for _, f := range q.filters {
		params.Add(f.column, f.op+"."+f.value)
	}

	endpoint := q.client.config.BaseURL + "/rest/v1/" + url.PathEscape(q.table)
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return endpoint
}

// headers はテーブル操作の共通ヘッダーを返す。
func (q *Query) headers(prefer ...string) map[string]string {
	h := map[string]string{
		"apikey":        q.client.config.ServiceRoleKey,
		"Authorization": "Bearer " + q.client.config.ServiceRoleKey,
	}
	if len(prefer) > 0 {
		h["Prefer"] = strings.Join(prefer, ",")
	}
	return h
}

// Get はフィルタに一致する行を取得してdestにデコードする。
// ExactCountが要求されている場合は正確な行数を、そうでなければCountNoneを返す。
func (q *Query) Get(ctx context.Context, dest any) (int, error) {
	var prefer []string
	if q.exactCount {
		prefer = append(prefer, "count=exact")
	}

	body, resp, err := q.client.send(ctx, "rest", http.MethodGet, q.buildURL(), q.headers(prefer...), nil)
	if err != nil {
		return CountNone, err
	}

	if err := decodeInto(body, dest); err != nil {
		return CountNone, err
	}

	if q.exactCount {
		return parseContentRangeCount(resp.Header.Get("Content-Range"))
	}
	return CountNone, nil
}

// Insert は行を挿入し、挿入された行の表現をdestにデコードする。
// destがnilでない場合はPrefer: return=representationを付与する。
func (q *Query) Insert(ctx context.Context, record any, dest any) error {
	prefer := []string{"return=minimal"}
	if dest != nil {
		prefer = []string{"return=representation"}
	}

	body, _, err := q.client.send(ctx, "rest", http.MethodPost, q.buildURL(), q.headers(prefer...), record)
	if err != nil {
		return err
	}

	return decodeInto(body, dest)
}

// Delete はフィルタに一致する行を削除し、削除された行の表現をdestにデコードする。
// 削除件数の判定のため常にPrefer: return=representationを付与する。
func (q *Query) Delete(ctx context.Context, dest any) error {
	body, _, err := q.client.send(ctx, "rest", http.MethodDelete, q.buildURL(), q.headers("return=representation"), nil)
	if err != nil {
		return err
	}

	return decodeInto(body, dest)
}

// parseContentRangeCount はContent-Rangeヘッダー（例: "0-24/3023"、"*/0"）から
// 総行数を取り出す。
func parseContentRangeCount(contentRange string) (int, error) {
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 || idx == len(contentRange)-1 {
		return CountNone, fmt.Errorf("Content-Rangeヘッダーが不正です: %q", contentRange)
	}

	total := contentRange[idx+1:]
	if total == "*" {
		return CountNone, fmt.Errorf("Content-Rangeヘッダーに総行数が含まれていません: %q", contentRange)
	}

	count, err := strconv.Atoi(total)
	if err != nil {
		return CountNone, fmt.Errorf("Content-Rangeヘッダーのパースに失敗しました: %w", err)
	}
	return count, nil
}
