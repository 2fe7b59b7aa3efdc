package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pavelanni/examprep/internal/apikey"
)

func (h *Handler) handleSaveAPIKey(w http.ResponseWriter, r *http.Request) {
	err := h.apiKeys.Save(r.Context(), r.FormValue("api_key"))
	switch {
	case errors.Is(err, apikey.ErrEmpty):
		h.setNotice(w, "NoticeKeyEmpty")
	case err != nil:
		slog.Error("failed to save api key", "error", err)
		h.setNotice(w, "NoticeSaveFailed")
	default:
		slog.Info("api key saved")
		h.setNotice(w, "NoticeKeySaved")
	}
	http.Redirect(w, r, h.path("/billing"), http.StatusSeeOther)
}

func (h *Handler) handleClearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.apiKeys.Clear(r.Context()); err != nil {
		slog.Error("failed to clear api key", "error", err)
		h.setNotice(w, "NoticeSaveFailed")
	} else {
		slog.Info("api key cleared")
		h.setNotice(w, "NoticeKeyCleared")
	}
	http.Redirect(w, r, h.path("/billing"), http.StatusSeeOther)
}
