// Package model はドメインモデルを定義する。
package model

import "time"

// Review はカタログ作品に対するレビューを表す。
// AccountIDは弱参照であり、アカウントが存在しなくてもレビューは残る（孤児化）。
// 本文は投稿されたまま保存する。編集操作は存在しない。
type Review struct {
	ID        string
	AccountID string
	TitleKey  string
	Body      string
	CreatedAt time.Time
}

// ReviewWithAuthor はレビューと投稿者の表示名を結合した読み取りモデル。
// 投稿者アカウントが存在しない場合、AuthorNameは空になる。
type ReviewWithAuthor struct {
	Review
	AuthorName string
}

// WatchlistEntry はアカウントのウォッチリストに登録されたカタログ作品を表す。
// (account_id, title_key) の組で一意であり、集合として振る舞う。
type WatchlistEntry struct {
	AccountID string
	TitleKey  string
	CreatedAt time.Time
}
