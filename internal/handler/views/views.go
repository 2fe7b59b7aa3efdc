// Package views renders the HTML pages. Pages are html/template files
// embedded at build time and exposed as templ components.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/pavelanni/examprep/internal/history"
	appI18n "github.com/pavelanni/examprep/internal/i18n"
	"github.com/pavelanni/examprep/internal/model"
	"github.com/pavelanni/examprep/internal/usage"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"welcome", "about", "practice", "dashboard", "entry", "notfound", "billing"} {
		pages[name] = template.Must(
			template.New("layout.html").
				Funcs(funcs(context.Background())).
				ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"),
		)
	}
}

// funcs binds the template helpers to a request context.
func funcs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"T": func(id string) string { return appI18n.T(ctx, id) },
		"Td": func(id string, kv ...any) string {
			data := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				data[fmt.Sprint(kv[i])] = kv[i+1]
			}
			return appI18n.Td(ctx, id, data)
		},
		"Tp":   func(id string, n int) string { return appI18n.Tp(ctx, id, n) },
		"lang": func() string { return appI18n.Lang(ctx) },
		"dir":  func() string { return appI18n.Dir(appI18n.Lang(ctx)) },
		"path": func(p string) string { return model.BasePathFromContext(ctx) + p },
		"csrf": func() string { return model.CSRFTokenFromContext(ctx) },
		"pct":  func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"inc":  func(i int) int { return i + 1 },
		"letter": func(i int) string {
			return string(rune('A' + i))
		},
		"date": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
		"lines": func(s string) []string {
			var out []string
			for _, l := range strings.Split(s, "\n") {
				if l = strings.TrimSpace(l); l != "" {
					out = append(out, l)
				}
			}
			return out
		},
	}
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, err := pages[name].Clone()
		if err != nil {
			return fmt.Errorf("clone %s template: %w", name, err)
		}
		t.Funcs(funcs(ctx))
		return templ.FromGoHTML(t, data).Render(ctx, w)
	})
}

// Layout carries the fields every page shares.
type Layout struct {
	Active string // highlighted navigation item
	Notice string // translated, dismissible message; empty for none
}

type WelcomeData struct {
	Layout
	KeyReady   bool
	TestsTaken int
}

type AboutData struct {
	Layout
	Provider   string
	Model      string
	DailyLimit int
}

type PracticeData struct {
	Layout
	Stage        model.PracticeStage
	Subjects     []string
	Models       []string
	DefaultModel string
	Topic        string
	Model        string
	Passage      *model.Passage
	Answers      []string
	Result       *model.TestResult
}

type DashboardData struct {
	Layout
	Stats   history.Stats
	Entries []model.TestHistoryEntry
}

type EntryData struct {
	Layout
	Entry model.TestHistoryEntry
}

type NotFoundData struct {
	Layout
	ID string
}

type BillingData struct {
	Layout
	Usage     usage.Snapshot
	HasKey    bool
	MaskedKey string
	ServerKey bool
	Sealed    bool
	Provider  string
}

func WelcomePage(d WelcomeData) templ.Component     { return render("welcome", d) }
func AboutPage(d AboutData) templ.Component         { return render("about", d) }
func PracticePage(d PracticeData) templ.Component   { return render("practice", d) }
func DashboardPage(d DashboardData) templ.Component { return render("dashboard", d) }
func EntryPage(d EntryData) templ.Component         { return render("entry", d) }
func NotFoundPage(d NotFoundData) templ.Component   { return render("notfound", d) }
func BillingPage(d BillingData) templ.Component     { return render("billing", d) }
