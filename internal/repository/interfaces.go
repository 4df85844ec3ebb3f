// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/screenlog/internal/model"
)

// ErrDuplicateUsername はusersテーブルのユーザー名一意制約違反を表す。
var ErrDuplicateUsername = errors.New("username already taken")

// ErrDuplicateIdentity はidentitiesテーブルの(provider, provider_user_id)一意制約違反を表す。
// フェデレーション初回ログインの同時実行時に発生し、呼び出し元は再検索で勝者のアカウントを解決する。
var ErrDuplicateIdentity = errors.New("identity already linked to an account")

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByUsername はユーザー名でアカウントを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// Create はパスワード認証のアカウントを作成する。
	// ユーザー名が重複した場合はErrDuplicateUsernameを返す。
	Create(ctx context.Context, account *model.Account) error

	// CreateWithIdentity はアカウントとidentityを同一トランザクションで作成する。
	// (provider, provider_user_id)が重複した場合はErrDuplicateIdentityを、
	// ユーザー名が重複した場合はErrDuplicateUsernameを返す。
	CreateWithIdentity(ctx context.Context, account *model.Account, identity *model.Identity) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)

	// ListByAccountID はアカウントに紐付く全identityを返す。
	ListByAccountID(ctx context.Context, accountID string) ([]*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。
	// 不明・期限切れ・破棄済みはいずれも区別せずnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しないIDでもエラーにならない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByAccountID は指定アカウントの全セッションを削除する。
	DeleteByAccountID(ctx context.Context, accountID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// WatchlistRepository はウォッチリストの永続化インターフェース。
// 集合としての単一要素の追加・削除のみを提供し、リスト全体の置き換えは行わない。
type WatchlistRepository interface {
	// Add は作品をウォッチリストに追加する。既に存在する場合は何もしない（冪等）。
	Add(ctx context.Context, accountID, titleKey string) error

	// Remove は作品をウォッチリストから削除する。存在しない場合も成功する（冪等）。
	Remove(ctx context.Context, accountID, titleKey string) error

	// ListByAccountID はアカウントのウォッチリストの作品キーを追加順で返す。
	ListByAccountID(ctx context.Context, accountID string) ([]string, error)

	// Contains は作品がウォッチリストに含まれるかを返す。
	Contains(ctx context.Context, accountID, titleKey string) (bool, error)
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// ListByTitleKey は作品のレビューを投稿者の表示名付きで投稿順に返す。
	// 投稿者アカウントが削除済みの場合、AuthorNameは空で返る。
	ListByTitleKey(ctx context.Context, titleKey string) ([]model.ReviewWithAuthor, error)

	// DeleteByID は指定IDのレビューを削除する。
	// 削除対象が存在しなかった場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}
