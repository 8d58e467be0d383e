package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATEコード。
const pgUniqueViolation = "23505"

// Error はSupabase APIが返したエラーレスポンスを表す。
// CodeはPostgRESTのSQLSTATEまたはGoTrueのエラーコード（存在する場合のみ）。
// Messageはプラットフォームのメッセージをそのまま保持する。
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.StatusCode)
}

// IsDuplicateKey は一意制約違反かどうかを判定する。
// 構造化コード（SQLSTATE 23505）を優先し、コードが欠けるレスポンスのために
// メッセージの部分文字列判定（"duplicate key" / "unique constraint"、大文字小文字無視）を
// フォールバックとして残す。
func (e *Error) IsDuplicateKey() bool {
	if e.Code == pgUniqueViolation {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// AsError はerrをSupabaseの*Errorとして取り出す。
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseError はエラーレスポンスボディを*Errorに変換する。
// GoTrueは {error, error_description} や {code, error_code, msg}、
// PostgRESTは {code, message, details, hint} を返すため、
// メッセージ系フィールドの最初に見つかった値を採用する。
// どのフィールドも無い、またはJSONでない場合は生のボディを使う。
func parseError(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"message", "msg", "error_description", "error"} {
			if v, ok := parsed[key].(string); ok && v != "" {
				e.Message = v
				break
			}
		}
		// codeは文字列（SQLSTATE、GoTrueコード名）の場合のみ採用する。
		// 旧GoTrueはcodeに数値のHTTPステータスを入れるが、それは分類に使えない。
		for _, key := range []string{"code", "error_code"} {
			if v, ok := parsed[key].(string); ok && v != "" {
				e.Code = v
				break
			}
		}
	}

	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status %d", statusCode)
	}

	return e
}
