// Package auth はローカルパスワード認証、フェデレーション認証フロー、
// セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/screenlog/internal/model"
	"github.com/hitoshi/screenlog/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// ローカルパスワードとフェデレーションのどちらの認証経路も、
// 検証成功後は同じセッション発行処理に合流する。
type Service struct {
	providers   map[string]FederatedProvider
	accountRepo repository.AccountRepository
	identRepo   repository.IdentityRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	providers []FederatedProvider,
	accountRepo repository.AccountRepository,
	identRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	byName := make(map[string]FederatedProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Service{
		providers:   byName,
		accountRepo: accountRepo,
		identRepo:   identRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetLoginURL は指定プロバイダーの認可URLを生成する。
func (s *Service) GetLoginURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", model.NewUnknownProviderError(provider)
	}
	return p.GetLoginURL(state), nil
}

// Register はパスワード認証のアカウントを新規作成し、セッションを発行する。
// ユーザー名が既に使用されている場合はDuplicateUsernameエラーを返す。
func (s *Service) Register(ctx context.Context, email, username, password string) (*model.Account, *model.Session, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, nil, model.NewDuplicateUsernameError(username)
		}
		return nil, nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("new account registered",
		slog.String("user_id", account.ID),
		slog.String("username", username),
	)

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return account, session, nil
}

// LoginLocal はユーザー名とパスワードでログインし、セッションを発行する。
// ユーザー名の不存在とパスワード不一致は区別せず、同じエラーを返す。
func (s *Service) LoginLocal(ctx context.Context, username, password string) (*model.Account, *model.Session, error) {
	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find account: %w", err)
	}

	if account == nil || !account.HasPassword() {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	// bcryptの照合は定数時間比較
	if !VerifyPassword(account.PasswordHash, password) {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("local login succeeded",
		slog.String("user_id", account.ID),
	)

	return account, session, nil
}

// HandleFederatedCallback はOAuthコールバックを処理し、セッションを発行する。
// 未登録のプロバイダーIDの場合はアカウントを自動作成する。
// 登録済みの場合はidentitiesテーブルで既存アカウントを特定しログインする。
func (s *Service) HandleFederatedCallback(ctx context.Context, provider, code string) (*model.Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, model.NewUnknownProviderError(provider)
	}

	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	profile, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. プロバイダーIDからアカウントを解決（なければ作成）
	accountID, err := s.resolveOrCreateFederated(ctx, profile)
	if err != nil {
		return nil, err
	}

	// 3. セッションを発行
	session, err := s.createSession(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// resolveOrCreateFederated は(provider, providerUserID)からアカウントを解決する。
// 見つからない場合はプロファイル情報を元にアカウントとidentityを作成する。
// この経路で「見つからない」は失敗ではなく作成を意味する。
//
// 同一プロバイダーIDの初回ログインが同時に到達した場合、
// identitiesの一意制約違反を受けた側が再検索に切り替え、
// 先に作成された方のアカウントへ収束する（アプリケーションレベルのロックは使わない）。
func (s *Service) resolveOrCreateFederated(ctx context.Context, profile *Profile) (string, error) {
	identity, err := s.identRepo.FindByProviderAndProviderUserID(ctx, profile.Provider, profile.ProviderUserID)
	if err != nil {
		return "", fmt.Errorf("failed to find identity: %w", err)
	}

	if identity != nil {
		slog.Info("existing account logged in",
			slog.String("user_id", identity.AccountID),
			slog.String("provider", profile.Provider),
		)
		return identity.AccountID, nil
	}

	newAccountID := uuid.New().String()
	now := time.Now()

	username := profile.Name
	if username == "" {
		username = profile.Provider + "-" + profile.ProviderUserID
	}

	// 表示名由来のユーザー名は他アカウントと衝突しうるため、
	// 衝突時はIDの断片を付けて数回だけ再試行する。
	const maxUsernameAttempts = 3
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		candidate := username
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%s", username, uuid.New().String()[:8])
		}

		newAccount := &model.Account{
			ID:        newAccountID,
			Email:     profile.Email,
			Username:  candidate,
			CreatedAt: now,
			UpdatedAt: now,
		}
		newIdentity := &model.Identity{
			ID:             uuid.New().String(),
			AccountID:      newAccountID,
			Provider:       profile.Provider,
			ProviderUserID: profile.ProviderUserID,
			CreatedAt:      now,
		}

		err := s.accountRepo.CreateWithIdentity(ctx, newAccount, newIdentity)
		switch {
		case err == nil:
			slog.Info("new account created via federated login",
				slog.String("user_id", newAccountID),
				slog.String("provider", profile.Provider),
			)
			return newAccountID, nil

		case errors.Is(err, repository.ErrDuplicateIdentity):
			// 同時初回ログインの敗者側: 勝者のアカウントを再検索して返す
			winner, findErr := s.identRepo.FindByProviderAndProviderUserID(ctx, profile.Provider, profile.ProviderUserID)
			if findErr != nil {
				return "", fmt.Errorf("failed to re-find identity after conflict: %w", findErr)
			}
			if winner == nil {
				return "", fmt.Errorf("identity conflict but winner not found: provider=%s", profile.Provider)
			}
			slog.Info("concurrent federated first login resolved to existing account",
				slog.String("user_id", winner.AccountID),
				slog.String("provider", profile.Provider),
			)
			return winner.AccountID, nil

		case errors.Is(err, repository.ErrDuplicateUsername):
			continue

		default:
			return "", fmt.Errorf("failed to create account and identity: %w", err)
		}
	}

	return "", fmt.Errorf("failed to allocate username after %d attempts: %s", maxUsernameAttempts, username)
}

// Logout はセッションを破棄する。
// 既に破棄済み・不明なセッションIDでもエラーにならない（冪等）。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("session terminated", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentAccount はセッションIDから現在のアカウントを解決する。
// 不明・期限切れ・破棄済みのセッションはいずれも「未ログイン」としてnilを返し、
// 呼び出し元がそれらを区別できる情報は返さない。
func (s *Service) GetCurrentAccount(ctx context.Context, sessionID string) (*model.Account, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, nil
	}

	return account, nil
}

// createSession はセッションを作成し永続化する。
// 永続化が完了してからトークンを呼び出し元に返す。
func (s *Service) createSession(ctx context.Context, accountID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
