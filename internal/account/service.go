// Package account はアカウントプロフィールの参照機能を提供する。
package account

import (
	"context"

	"github.com/hitoshi/screenlog/internal/model"
	"github.com/hitoshi/screenlog/internal/repository"
)

// Profile はアカウントの公開プロフィール。
// 認証手段の一覧を含むが、パスワードハッシュやトークン等の秘密情報は含まない。
type Profile struct {
	ID          string           `json:"id"`
	Email       string           `json:"email,omitempty"`
	Username    string           `json:"username"`
	Credentials []CredentialInfo `json:"credentials"`
	CreatedAt   string           `json:"created_at"`
}

// CredentialInfo はプロフィールに含める認証手段の情報。
// フェデレーションの場合のみproviderが設定される。
type CredentialInfo struct {
	Kind     string `json:"kind"`
	Provider string `json:"provider,omitempty"`
}

// Service はアカウントプロフィールのビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	identRepo   repository.IdentityRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accountRepo repository.AccountRepository, identRepo repository.IdentityRepository) *Service {
	return &Service{
		accountRepo: accountRepo,
		identRepo:   identRepo,
	}
}

// GetProfile は指定アカウントのプロフィールを返す。
// 認証手段はパスワードの有無とidentitiesの紐付けから導出する。
// アカウントが見つからない場合はUserNotFoundエラーを返す。
func (s *Service) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, model.NewUserNotFoundError()
	}

	creds, err := s.Credentials(ctx, acct)
	if err != nil {
		return nil, err
	}

	infos := make([]CredentialInfo, 0, len(creds))
	for _, c := range creds {
		infos = append(infos, CredentialInfo{
			Kind:     string(c.Kind),
			Provider: c.Provider,
		})
	}

	return &Profile{
		ID:          acct.ID,
		Email:       acct.Email,
		Username:    acct.Username,
		Credentials: infos,
		CreatedAt:   acct.CreatedAt.Format("2006-01-02"),
	}, nil
}

// Credentials はアカウントに紐付く認証手段の一覧を返す。
// パスワード認証が先頭、フェデレーションはプロバイダー名順で続く。
// アカウントは常に1つ以上の認証手段を持つ。
func (s *Service) Credentials(ctx context.Context, acct *model.Account) ([]model.Credential, error) {
	var creds []model.Credential

	if acct.HasPassword() {
		creds = append(creds, model.Credential{Kind: model.CredentialPassword})
	}

	identities, err := s.identRepo.ListByAccountID(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	for _, ident := range identities {
		creds = append(creds, model.Credential{
			Kind:           model.CredentialFederated,
			Provider:       ident.Provider,
			ProviderUserID: ident.ProviderUserID,
		})
	}

	return creds, nil
}
