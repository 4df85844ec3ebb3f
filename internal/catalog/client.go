// Package catalog は外部映画カタログAPIの呼び出しを提供する。
// タイトル検索と詳細取得を含む。カタログデータは外部APIが正本であり、
// ローカルには保存しない。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/screenlog/internal/model"
)

// defaultBaseURL は映画カタログAPIのエンドポイント。
const defaultBaseURL = "https://www.omdbapi.com/"

// SearchResult はタイトル検索の1件分の結果。
type SearchResult struct {
	TitleKey  string `json:"title_key"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	Kind      string `json:"kind"`
	PosterURL string `json:"poster_url,omitempty"`
}

// TitleDetail は1タイトルの詳細情報。
type TitleDetail struct {
	TitleKey  string `json:"title_key"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	Rated     string `json:"rated,omitempty"`
	Released  string `json:"released,omitempty"`
	Runtime   string `json:"runtime,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Director  string `json:"director,omitempty"`
	Actors    string `json:"actors,omitempty"`
	Plot      string `json:"plot,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
	Rating    string `json:"rating,omitempty"`
}

// MetricsRecorder はカタログAPI呼び出しのメトリクス記録を抽象化する。
type MetricsRecorder interface {
	RecordCatalogRequest(statusCode int)
	RecordCatalogLatency(duration time.Duration)
}

// Client は映画カタログAPIのクライアント。
// Metricsを設定すると呼び出しごとにステータスとレイテンシを記録する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
	apiKey     string

	Metrics MetricsRecorder
}

// NewClient はClient の新しいインスタンスを生成する。
// baseURLが空の場合はデフォルトのエンドポイントを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// searchResponse はカタログAPIの検索レスポンス。
type searchResponse struct {
	Search []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		ImdbID string `json:"imdbID"`
		Type   string `json:"Type"`
		Poster string `json:"Poster"`
	} `json:"Search"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// detailResponse はカタログAPIの詳細レスポンス。
type detailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// SearchByTitle はタイトル名でカタログを検索する。
// ヒットなしは空スライスを返し、エラーとは扱わない。
// API障害時はCatalogUnavailableエラーを返す。
func (c *Client) SearchByTitle(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := c.get(ctx, url.Values{"s": {query}})
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("カタログAPIの検索レスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewCatalogUnavailableError("invalid response")
	}

	// Response: "False" はヒットなし（"Movie not found!"）または
	// パラメータ不備。どちらも検索結果0件として扱う。
	if !strings.EqualFold(result.Response, "True") {
		c.logger.Info("catalog search returned no results",
			slog.String("query", query),
			slog.String("api_error", result.Error),
		)
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(result.Search))
	for _, s := range result.Search {
		results = append(results, SearchResult{
			TitleKey:  s.ImdbID,
			Title:     s.Title,
			Year:      s.Year,
			Kind:      s.Type,
			PosterURL: normalizePoster(s.Poster),
		})
	}
	return results, nil
}

// GetByKey はタイトルキーで詳細情報を取得する。
// 存在しないキーの場合はTitleNotFoundエラーを返す。
func (c *Client) GetByKey(ctx context.Context, titleKey string) (*TitleDetail, error) {
	body, err := c.get(ctx, url.Values{"i": {titleKey}})
	if err != nil {
		return nil, err
	}

	var result detailResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("カタログAPIの詳細レスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewCatalogUnavailableError("invalid response")
	}

	if !strings.EqualFold(result.Response, "True") {
		return nil, model.NewTitleNotFoundError(titleKey)
	}

	return &TitleDetail{
		TitleKey:  result.ImdbID,
		Title:     result.Title,
		Year:      result.Year,
		Rated:     result.Rated,
		Released:  result.Released,
		Runtime:   result.Runtime,
		Genre:     result.Genre,
		Director:  result.Director,
		Actors:    result.Actors,
		Plot:      result.Plot,
		PosterURL: normalizePoster(result.Poster),
		Rating:    result.ImdbRating,
	}, nil
}

// get はカタログAPIにGETリクエストを送信する。
// APIキーは常にクエリパラメータとして付与される。
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("カタログAPIのURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("apikey", c.apiKey)
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.Metrics != nil {
		c.Metrics.RecordCatalogLatency(time.Since(start))
	}
	if err != nil {
		c.logger.Error("カタログAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewCatalogUnavailableError("request failed")
	}
	defer resp.Body.Close()

	if c.Metrics != nil {
		c.Metrics.RecordCatalogRequest(resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("カタログAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewCatalogUnavailableError(fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, model.NewCatalogUnavailableError("read failed")
	}

	return body, nil
}

// normalizePoster はポスターURL未設定を表す "N/A" を空文字に正規化する。
func normalizePoster(poster string) string {
	if poster == "N/A" {
		return ""
	}
	return poster
}
