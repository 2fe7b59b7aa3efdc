package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLang(context.Background(), lang)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "ExamPrep" {
		t.Errorf("T(AppTitle) = %q, want 'ExamPrep'", got)
	}
	if got := T(ctx, "GeneratePassage"); got != "Generate passage" {
		t.Errorf("T(GeneratePassage) = %q, want 'Generate passage'", got)
	}
}

func TestTranslateArabic(t *testing.T) {
	ctx := initLang(t, "ar")

	if got := T(ctx, "NavPractice"); got != "تدريب" {
		t.Errorf("T(NavPractice) = %q, want 'تدريب'", got)
	}
	if got := Lang(ctx); got != "ar" {
		t.Errorf("Lang = %q, want ar", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "TestCount", 1); got != "1 test" {
		t.Errorf("Tp(TestCount, 1) = %q, want '1 test'", got)
	}
	if got := Tp(ctx, "TestCount", 5); got != "5 tests" {
		t.Errorf("Tp(TestCount, 5) = %q, want '5 tests'", got)
	}
}

func TestArabicPluralForms(t *testing.T) {
	ctx := initLang(t, "ar")

	tests := []struct {
		n    int
		want string
	}{
		{0, "لا اختبارات"},
		{1, "اختبار واحد"},
		{2, "اختباران"},
		{3, "3 اختبارات"},
		{11, "11 اختبارًا"},
		{100, "100 اختبار"},
	}
	for _, tt := range tests {
		if got := Tp(ctx, "TestCount", tt.n); got != tt.want {
			t.Errorf("Tp(TestCount, %d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "RequestsOfLimit", map[string]any{"Used": 7, "Limit": 50})
	if got != "7 of 50 requests used." {
		t.Errorf("Td(RequestsOfLimit) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	read := func(name string) map[string]any {
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := jsonUnmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		return m
	}
	en, ar := read("en.json"), read("ar.json")
	for k := range en {
		if _, ok := ar[k]; !ok {
			t.Errorf("ar.json lacks %q", k)
		}
	}
	for k := range ar {
		if _, ok := en[k]; !ok {
			t.Errorf("en.json lacks %q", k)
		}
	}
}

func TestInitRejectsUnsupported(t *testing.T) {
	if err := Init("ru"); err == nil {
		t.Error("expected error for unsupported language")
	}
	if err := Init("not a tag!"); err == nil {
		t.Error("expected error for malformed language tag")
	}
}

func TestDir(t *testing.T) {
	for lang, want := range map[string]string{"ar": "rtl", "ar-EG": "rtl", "en": "ltr", "": "ltr"} {
		if got := Dir(lang); got != want {
			t.Errorf("Dir(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestMatch(t *testing.T) {
	initLang(t, "en")
	tests := map[string]string{
		"ar-SA,ar;q=0.9,en;q=0.8": "ar",
		"en-GB,en;q=0.9":          "en",
		"fr-FR":                   "en",
		"garbage;;;":              "en",
	}
	for header, want := range tests {
		if got := Match(header); got != want {
			t.Errorf("Match(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")

	var got string
	h := Middleware("en", false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Lang(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		want   string
		cookie bool
	}{
		{"fallback", func(*http.Request) {}, "en", false},
		{"query", func(r *http.Request) { r.URL.RawQuery = "lang=ar" }, "ar", true},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "ar"}) }, "ar", false},
		{"header", func(r *http.Request) { r.Header.Set("Accept-Language", "ar") }, "ar", false},
		{"bad query ignored", func(r *http.Request) { r.URL.RawQuery = "lang=xx" }, "en", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			tt.setup(r)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if got != tt.want {
				t.Errorf("lang = %q, want %q", got, tt.want)
			}
			hasCookie := len(rec.Result().Cookies()) > 0
			if hasCookie != tt.cookie {
				t.Errorf("cookie set = %v, want %v", hasCookie, tt.cookie)
			}
		})
	}
}
