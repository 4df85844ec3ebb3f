// Package flash は次のレスポンスまで保持される一時通知メッセージを提供する。
// メッセージはCookieに積まれ、取り出しと同時に消える（一度きりの表示）。
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// cookieName はフラッシュメッセージを保持するCookie名。
const cookieName = "screenlog_flash"

// maxMessages はCookieに積める最大メッセージ数。
// Cookieサイズの上限(4KB)を超えないための保険。
const maxMessages = 10

// Message は1件のフラッシュメッセージ。
type Message struct {
	Kind string `json:"kind"` // "success" または "error"
	Text string `json:"text"`
}

// Store はCookieベースのフラッシュメッセージキュー。
type Store struct {
	secure bool
}

// NewStore はStoreの新しいインスタンスを生成する。
// secureはCookieのSecure属性を制御する（本番環境ではtrue）。
func NewStore(secure bool) *Store {
	return &Store{secure: secure}
}

// Push はメッセージをキューの末尾に追加する。
// 既存のメッセージは保持され、上限を超えた分は古いものから破棄される。
func (s *Store) Push(w http.ResponseWriter, r *http.Request, kind, text string) {
	messages := s.peek(r)
	messages = append(messages, Message{Kind: kind, Text: text})
	if len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}
	s.write(w, messages, 0)
}

// Pop はキューの全メッセージを取り出し、Cookieを破棄する。
// メッセージがない場合は空スライスを返す。
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	messages := s.peek(r)
	if len(messages) > 0 {
		s.write(w, nil, -1)
	}
	return messages
}

// peek はCookieからメッセージを読み取る。壊れたCookieは空として扱う。
func (s *Store) peek(r *http.Request) []Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return []Message{}
	}

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return []Message{}
	}

	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return []Message{}
	}
	return messages
}

// write はメッセージをCookieに書き込む。maxAge < 0 でCookieを破棄する。
func (s *Store) write(w http.ResponseWriter, messages []Message, maxAge int) {
	value := ""
	if len(messages) > 0 {
		raw, err := json.Marshal(messages)
		if err != nil {
			return
		}
		value = base64.RawURLEncoding.EncodeToString(raw)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
