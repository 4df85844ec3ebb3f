package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/screenlog/internal/model"
)

// Profile は外部IdPから取得したユーザー情報を表す。
// すべてのプロバイダーで同一の形に正規化され、
// 認証サービスはプロバイダーの違いを意識しない。
type Profile struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string
}

// FederatedProvider は外部IdPによる認証フローのインターフェース。
// プロバイダーの追加はコンストラクタを1つ増やすだけで済み、
// 認証サービス側の変更を必要としない。
type FederatedProvider interface {
	// Name はプロバイダー名（"google"等）を返す。
	Name() string
	// GetLoginURL は認可エンドポイントのURLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、正規化済みプロファイルを取得する。
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// Endpoints はOAuthプロバイダーのエンドポイントURL。
// テスト用にオーバーライド可能。
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// ProviderConfig はOAuthプロバイダーのクライアント設定。
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なエンドポイント
	Endpoints Endpoints
}

// profileDecoder はプロバイダー固有のユーザー情報レスポンスを
// 正規化済みProfileに変換する。
type profileDecoder func(body []byte) (*Profile, error)

// OAuthProvider は認可コードフローによるフェデレーション認証の共通実装。
// プロバイダーごとの差分はエンドポイント、スコープ、プロファイルのデコードのみ。
type OAuthProvider struct {
	name      string
	config    ProviderConfig
	endpoints Endpoints
	scopes    string
	decode    profileDecoder
}

// Name はプロバイダー名を返す。
func (p *OAuthProvider) Name() string {
	return p.name
}

// GetLoginURL は認可エンドポイントのURLを生成する。
func (p *OAuthProvider) GetLoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {p.scopes},
		"state":         {state},
	}
	return p.endpoints.AuthURL + "?" + params.Encode()
}

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	// 1. 認可コードをアクセストークンに交換
	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. アクセストークンでユーザー情報を取得
	profile, err := p.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	profile.Provider = p.name
	return profile, nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
func (p *OAuthProvider) exchangeToken(ctx context.Context, code string) (*tokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// GitHubはAcceptヘッダーがない場合form-encodedで返すため、JSONを明示する
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &token, nil
}

// fetchProfile はアクセストークンでユーザー情報を取得し、Profileに正規化する。
func (p *OAuthProvider) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoints.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	profile, err := p.decode(body)
	if err != nil {
		return nil, err
	}

	if profile.ProviderUserID == "" {
		return nil, fmt.Errorf("empty provider user ID in user info response")
	}

	return profile, nil
}

// --- Google ---

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// NewGoogleProvider はGoogle OAuth 2.0プロバイダーを生成する。
func NewGoogleProvider(config ProviderConfig) *OAuthProvider {
	endpoints := config.Endpoints
	if endpoints.AuthURL == "" {
		endpoints.AuthURL = defaultGoogleAuthURL
	}
	if endpoints.TokenURL == "" {
		endpoints.TokenURL = defaultGoogleTokenURL
	}
	if endpoints.UserInfoURL == "" {
		endpoints.UserInfoURL = defaultGoogleUserInfoURL
	}
	return &OAuthProvider{
		name:      model.ProviderGoogle,
		config:    config,
		endpoints: endpoints,
		scopes:    "openid email profile",
		decode: func(body []byte) (*Profile, error) {
			var info struct {
				Sub   string `json:"sub"`
				Email string `json:"email"`
				Name  string `json:"name"`
			}
			if err := json.Unmarshal(body, &info); err != nil {
				return nil, fmt.Errorf("failed to parse google user info: %w", err)
			}
			return &Profile{ProviderUserID: info.Sub, Email: info.Email, Name: info.Name}, nil
		},
	}
}

// --- GitHub ---

const (
	defaultGitHubAuthURL     = "https://github.com/login/oauth/authorize"
	defaultGitHubTokenURL    = "https://github.com/login/oauth/access_token"
	defaultGitHubUserInfoURL = "https://api.github.com/user"
)

// NewGitHubProvider はGitHub OAuthプロバイダーを生成する。
// GitHubのユーザーIDは数値のため文字列に正規化する。
// メールアドレスが非公開の場合、emailは空になる。
func NewGitHubProvider(config ProviderConfig) *OAuthProvider {
	endpoints := config.Endpoints
	if endpoints.AuthURL == "" {
		endpoints.AuthURL = defaultGitHubAuthURL
	}
	if endpoints.TokenURL == "" {
		endpoints.TokenURL = defaultGitHubTokenURL
	}
	if endpoints.UserInfoURL == "" {
		endpoints.UserInfoURL = defaultGitHubUserInfoURL
	}
	return &OAuthProvider{
		name:      model.ProviderGitHub,
		config:    config,
		endpoints: endpoints,
		scopes:    "read:user user:email",
		decode: func(body []byte) (*Profile, error) {
			var info struct {
				ID    int64  `json:"id"`
				Login string `json:"login"`
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := json.Unmarshal(body, &info); err != nil {
				return nil, fmt.Errorf("failed to parse github user info: %w", err)
			}
			name := info.Name
			if name == "" {
				name = info.Login
			}
			id := ""
			if info.ID != 0 {
				id = strconv.FormatInt(info.ID, 10)
			}
			return &Profile{ProviderUserID: id, Email: info.Email, Name: name}, nil
		},
	}
}

// --- Facebook ---

const (
	defaultFacebookAuthURL     = "https://www.facebook.com/v19.0/dialog/oauth"
	defaultFacebookTokenURL    = "https://graph.facebook.com/v19.0/oauth/access_token"
	defaultFacebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"
)

// NewFacebookProvider はFacebook Loginプロバイダーを生成する。
func NewFacebookProvider(config ProviderConfig) *OAuthProvider {
	endpoints := config.Endpoints
	if endpoints.AuthURL == "" {
		endpoints.AuthURL = defaultFacebookAuthURL
	}
	if endpoints.TokenURL == "" {
		endpoints.TokenURL = defaultFacebookTokenURL
	}
	if endpoints.UserInfoURL == "" {
		endpoints.UserInfoURL = defaultFacebookUserInfoURL
	}
	return &OAuthProvider{
		name:      model.ProviderFacebook,
		config:    config,
		endpoints: endpoints,
		scopes:    "email public_profile",
		decode: func(body []byte) (*Profile, error) {
			var info struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := json.Unmarshal(body, &info); err != nil {
				return nil, fmt.Errorf("failed to parse facebook user info: %w", err)
			}
			return &Profile{ProviderUserID: info.ID, Email: info.Email, Name: info.Name}, nil
		},
	}
}

// compile-time interface check
var _ FederatedProvider = (*OAuthProvider)(nil)
