package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/screenlog/internal/model"
)

// HealthChecker はDB接続の死活確認を抽象化するインターフェース。
// *sql.DB を受け付けることができる。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler は/healthエンドポイントのハンドラー。
// Dockerヘルスチェックと外形監視から利用される。
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check はDBへの疎通確認を行い、稼働状態を返す。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeAPIErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
				Code:     "SERVICE_UNAVAILABLE",
				Message:  "データベースに接続できません。",
				Category: "system",
				Action:   "しばらく待ってから再度お試しください。",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
