package handler

import (
	"net/http"

	"github.com/hitoshi/screenlog/internal/flash"
)

// FlashHandler は一時通知メッセージ取得のHTTPハンドラー。
type FlashHandler struct {
	store *flash.Store
}

// NewFlashHandler はFlashHandlerを生成する。
func NewFlashHandler(store *flash.Store) *FlashHandler {
	return &FlashHandler{store: store}
}

// Pop は溜まっているメッセージをすべて返し、キューを空にする。
// 同じメッセージが二度返されることはない。
// GET /api/flash
func (h *FlashHandler) Pop(w http.ResponseWriter, r *http.Request) {
	messages := h.store.Pop(w, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
	})
}
