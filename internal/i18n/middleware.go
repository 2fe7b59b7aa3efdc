package i18n

import "net/http"

// CookieName holds the learner's chosen UI language.
const CookieName = "lang"

// Middleware injects a localizer into every request context. The language
// comes from a ?lang= query parameter (remembered in a cookie), the cookie,
// the Accept-Language header, or fallback, in that order.
func Middleware(fallback string, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := r.URL.Query().Get("lang"); IsSupported(q) {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    q,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(CookieName); err == nil && IsSupported(c.Value) {
				lang = c.Value
			} else if al := r.Header.Get("Accept-Language"); al != "" {
				lang = Match(al)
			}
			if lang == "" {
				lang = fallback
			}
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}
