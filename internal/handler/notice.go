package handler

import (
	"errors"
	"net/http"

	appI18n "github.com/pavelanni/examprep/internal/i18n"
	"github.com/pavelanni/examprep/internal/llm"
	"github.com/pavelanni/examprep/internal/practice"
)

const noticeCookieName = "notice"

// setNotice queues a message ID to be shown once on the next page.
func (h *Handler) setNotice(w http.ResponseWriter, msgID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookieName,
		Value:    msgID,
		Path:     h.cookiePath(),
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeNotice returns the translated pending notice and clears it.
func (h *Handler) takeNotice(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(noticeCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	if !knownNotices[c.Value] {
		return ""
	}
	return appI18n.T(r.Context(), c.Value)
}

var knownNotices = map[string]bool{
	"NoticeGenerationFailed": true,
	"NoticeGradingFailed":    true,
	"NoticeNoAPIKey":         true,
	"NoticeRateLimited":      true,
	"NoticeTopicRequired":    true,
	"NoticeAnswerAll":        true,
	"NoticeSessionExpired":   true,
	"NoticeKeySaved":         true,
	"NoticeKeyCleared":       true,
	"NoticeKeyEmpty":         true,
	"NoticeSaveFailed":       true,
}

// noticeFor maps a practice failure to the message shown to the learner.
func noticeFor(err error) string {
	var (
		rate   *llm.ErrRateLimit
		genErr *practice.GenerationError
	)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		return "NoticeNoAPIKey"
	case errors.Is(err, practice.ErrEmptyTopic):
		return "NoticeTopicRequired"
	case errors.As(err, &rate):
		return "NoticeRateLimited"
	case errors.As(err, &genErr):
		return "NoticeGenerationFailed"
	default:
		return "NoticeGradingFailed"
	}
}
