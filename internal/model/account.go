// Package model はドメインモデルを定義する。
package model

import "time"

// Account はサービス利用アカウントを表す。
// ローカルパスワードと外部IdPのどちらで認証しても、アカウントレコードは1つに統合される。
// PasswordHashはbcryptハッシュ（ソルト内包）。外部IdPのみのアカウントでは空。
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はローカルパスワード認証が設定されているかを返す。
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Identity は外部IdPとの紐付け情報を表す。
// (provider, provider_user_id) の組はストア全体で一意。
type Identity struct {
	ID             string
	AccountID      string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はアカウントのログインセッションを表す。
// トークンは発行時に生成される推測不能な値で、期限切れまたは破棄で無効になる。
type Session struct {
	ID        string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CredentialKind は認証手段の種別を表す。
type CredentialKind string

const (
	// CredentialPassword はローカルパスワード認証。
	CredentialPassword CredentialKind = "password"
	// CredentialFederated は外部IdPによるフェデレーション認証。
	CredentialFederated CredentialKind = "federated"
)

// Credential はアカウントに紐付く認証手段を表すタグ付きユニオン。
// Kind == CredentialFederated の場合のみProvider / ProviderUserIDが設定される。
// アカウントは常に1つ以上のCredentialを持つ（不変条件）。
type Credential struct {
	Kind           CredentialKind
	Provider       string
	ProviderUserID string
}

// サポートする外部IdPのプロバイダー名。
const (
	ProviderGoogle   = "google"
	ProviderGitHub   = "github"
	ProviderFacebook = "facebook"
)

// ValidProvider はサポート対象のプロバイダー名かを判定する。
func ValidProvider(name string) bool {
	switch name {
	case ProviderGoogle, ProviderGitHub, ProviderFacebook:
		return true
	default:
		return false
	}
}
