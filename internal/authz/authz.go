// Package authz はリソース単位の認可判定を提供する。
// 判定は純粋な関数であり、未ログインと権限不足を区別した
// APIErrorを返す。HTTPステータスへの変換はハンドラー層が行う。
package authz

import "github.com/hitoshi/screenlog/internal/model"

// RequireLogin はログイン済みであることを要求する。
// 未ログインの場合はUnauthorizedエラーを返す。
func RequireLogin(accountID string) error {
	if accountID == "" {
		return model.NewUnauthorizedError()
	}
	return nil
}

// RequireSelf はリソース所有者本人であることを要求する。
// 未ログインはUnauthorized、他人のリソースへのアクセスはForbiddenを返す。
// ウォッチリストのように所有者のみが操作できるリソースに使う。
func RequireSelf(accountID, ownerID string) error {
	if err := RequireLogin(accountID); err != nil {
		return err
	}
	if accountID != ownerID {
		return model.NewForbiddenError()
	}
	return nil
}

// RequireAuthor は対象の作成者本人であることを要求する。
// レビュー削除は作成者にのみ許可される。
func RequireAuthor(accountID, authorID string) error {
	return RequireSelf(accountID, authorID)
}
