package authz

import (
	"errors"
	"testing"

	"github.com/hitoshi/screenlog/internal/model"
)

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

func TestRequireLogin(t *testing.T) {
	if err := RequireLogin("user-1"); err != nil {
		t.Errorf("logged-in account should pass, got %v", err)
	}

	err := RequireLogin("")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestRequireSelf(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		ownerID   string
		wantCode  string
	}{
		{name: "owner passes", accountID: "user-1", ownerID: "user-1", wantCode: ""},
		{name: "not logged in", accountID: "", ownerID: "user-1", wantCode: model.ErrCodeUnauthorized},
		{name: "other user forbidden", accountID: "user-2", ownerID: "user-1", wantCode: model.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireSelf(tt.accountID, tt.ownerID)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			assertAPIErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestRequireAuthor_NonAuthorForbidden(t *testing.T) {
	if err := RequireAuthor("author-1", "author-1"); err != nil {
		t.Errorf("author should pass, got %v", err)
	}
	assertAPIErrorCode(t, RequireAuthor("someone-else", "author-1"), model.ErrCodeForbidden)
}
