package watchlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/screenlog/internal/catalog"
	"github.com/hitoshi/screenlog/internal/model"
	"github.com/hitoshi/screenlog/internal/repository"
)

// --- モック定義 ---

type mockWatchlistRepo struct {
	addFn             func(ctx context.Context, accountID, titleKey string) error
	removeFn          func(ctx context.Context, accountID, titleKey string) error
	listByAccountIDFn func(ctx context.Context, accountID string) ([]string, error)
	containsFn        func(ctx context.Context, accountID, titleKey string) (bool, error)
}

func (m *mockWatchlistRepo) Add(ctx context.Context, accountID, titleKey string) error {
	if m.addFn != nil {
		return m.addFn(ctx, accountID, titleKey)
	}
	return nil
}

func (m *mockWatchlistRepo) Remove(ctx context.Context, accountID, titleKey string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, accountID, titleKey)
	}
	return nil
}

func (m *mockWatchlistRepo) ListByAccountID(ctx context.Context, accountID string) ([]string, error) {
	if m.listByAccountIDFn != nil {
		return m.listByAccountIDFn(ctx, accountID)
	}
	return nil, nil
}

func (m *mockWatchlistRepo) Contains(ctx context.Context, accountID, titleKey string) (bool, error) {
	if m.containsFn != nil {
		return m.containsFn(ctx, accountID, titleKey)
	}
	return false, nil
}

var _ repository.WatchlistRepository = (*mockWatchlistRepo)(nil)

type mockTitleLookup struct {
	getByKeyFn func(ctx context.Context, titleKey string) (*catalog.TitleDetail, error)
}

func (m *mockTitleLookup) GetByKey(ctx context.Context, titleKey string) (*catalog.TitleDetail, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, titleKey)
	}
	return &catalog.TitleDetail{TitleKey: titleKey}, nil
}

var _ TitleLookup = (*mockTitleLookup)(nil)

func newTestService(repo *mockWatchlistRepo, titles *mockTitleLookup) *Service {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(repo, titles, logger)
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- テスト ---

func TestAdd_OwnerCanAdd(t *testing.T) {
	var addedKey string
	repo := &mockWatchlistRepo{
		addFn: func(ctx context.Context, accountID, titleKey string) error {
			addedKey = titleKey
			return nil
		},
	}
	svc := newTestService(repo, &mockTitleLookup{})

	if err := svc.Add(context.Background(), "user-1", "user-1", "tt0372784"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if addedKey != "tt0372784" {
		t.Errorf("added key = %q, want tt0372784", addedKey)
	}
}

func TestAdd_NotLoggedIn_ReturnsUnauthorized(t *testing.T) {
	svc := newTestService(&mockWatchlistRepo{}, &mockTitleLookup{})

	err := svc.Add(context.Background(), "", "user-1", "tt0372784")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestAdd_OtherUsersList_ReturnsForbidden(t *testing.T) {
	repo := &mockWatchlistRepo{
		addFn: func(ctx context.Context, accountID, titleKey string) error {
			t.Fatal("repository must not be called when authorization fails")
			return nil
		},
	}
	svc := newTestService(repo, &mockTitleLookup{})

	err := svc.Add(context.Background(), "user-2", "user-1", "tt0372784")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestRemove_OtherUsersList_ReturnsForbidden(t *testing.T) {
	svc := newTestService(&mockWatchlistRepo{}, &mockTitleLookup{})

	err := svc.Remove(context.Background(), "user-2", "user-1", "tt0372784")
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)
}

func TestList_EnrichesEntriesWithDetails(t *testing.T) {
	repo := &mockWatchlistRepo{
		listByAccountIDFn: func(ctx context.Context, accountID string) ([]string, error) {
			return []string{"tt0001", "tt0002"}, nil
		},
	}
	titles := &mockTitleLookup{
		getByKeyFn: func(ctx context.Context, titleKey string) (*catalog.TitleDetail, error) {
			return &catalog.TitleDetail{TitleKey: titleKey, Title: "Title " + titleKey}, nil
		},
	}
	svc := newTestService(repo, titles)

	entries, err := svc.List(context.Background(), "user-1", "user-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Detail == nil || entries[0].Detail.Title != "Title tt0001" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestList_EnrichmentFailure_IsBestEffort(t *testing.T) {
	// カタログ側で1件取得に失敗しても一覧全体は返る
	repo := &mockWatchlistRepo{
		listByAccountIDFn: func(ctx context.Context, accountID string) ([]string, error) {
			return []string{"tt0001", "tt0002"}, nil
		},
	}
	titles := &mockTitleLookup{
		getByKeyFn: func(ctx context.Context, titleKey string) (*catalog.TitleDetail, error) {
			if titleKey == "tt0001" {
				return nil, model.NewCatalogUnavailableError("down")
			}
			return &catalog.TitleDetail{TitleKey: titleKey}, nil
		},
	}
	svc := newTestService(repo, titles)

	entries, err := svc.List(context.Background(), "user-1", "user-1")
	if err != nil {
		t.Fatalf("enrichment failure must not fail the listing, got %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Detail != nil {
		t.Error("failed entry should have nil detail")
	}
	if entries[0].TitleKey != "tt0001" {
		t.Errorf("failed entry should keep its key, got %q", entries[0].TitleKey)
	}
	if entries[1].Detail == nil {
		t.Error("successful entry should carry its detail")
	}
}

func TestContains_AnonymousUser_ReturnsFalse(t *testing.T) {
	repo := &mockWatchlistRepo{
		containsFn: func(ctx context.Context, accountID, titleKey string) (bool, error) {
			t.Fatal("repository must not be called for anonymous users")
			return false, nil
		},
	}
	svc := newTestService(repo, &mockTitleLookup{})

	ok, err := svc.Contains(context.Background(), "", "tt0001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Error("anonymous user should never be 'in watchlist'")
	}
}
