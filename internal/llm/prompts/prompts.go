// Package prompts holds the fixed natural-language templates sent to the
// model gateway.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// Template names.
const (
	GeneratePassage = "generate-passage"
	GradeAnswer     = "grade-answer"
)

const maxInputRunes = 10000

var (
	learnerAnswerRegex      = regexp.MustCompile(`(?i)</?\s*learner-answer\b[^>]*>`)
	passageRegex            = regexp.MustCompile(`(?i)</?\s*passage\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

//go:embed templates/*.txt
var templateFS embed.FS

var files = map[string]string{
	GeneratePassage: "templates/generate_passage.txt",
	GradeAnswer:     "templates/grade_answer.txt",
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// Prompt is a rendered template split into system and user parts.
type Prompt struct {
	System string
	User   string
}

// GenerateData holds template data for passage generation.
type GenerateData struct {
	Topic         string
	QuestionCount int
	OptionCount   int
}

// GradeData holds template data for answer grading.
type GradeData struct {
	Passage       string
	Question      string
	CorrectAnswer string
	UserAnswer    string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template, len(files))
		for name, file := range files {
			content, err := templateFS.ReadFile(file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			for _, part := range []string{"system", "user"} {
				if tmpl.Lookup(part) == nil {
					loadErr = fmt.Errorf("prompt template %s lacks a %q block", file, part)
					return
				}
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// Names lists the known template names.
func Names() []string {
	return []string{GeneratePassage, GradeAnswer}
}

// Render executes the named template with data. data is usually a
// GenerateData or GradeData, but any map or struct with the referenced
// fields works.
func Render(name string, data any) (Prompt, error) {
	if err := load(); err != nil {
		return Prompt{}, fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := templates[name]
	if !ok {
		return Prompt{}, errors.New("unknown prompt template: " + name)
	}

	switch d := data.(type) {
	case GradeData:
		data = sanitizeGradeData(d)
	case *GradeData:
		data = sanitizeGradeData(*d)
	case GenerateData:
		d.Topic = sanitize(d.Topic, "[No topic provided]")
		data = d
	}

	var sys, user bytes.Buffer
	if err := tmpl.ExecuteTemplate(&sys, "system", data); err != nil {
		return Prompt{}, fmt.Errorf("render %s system prompt: %w", name, err)
	}
	if err := tmpl.ExecuteTemplate(&user, "user", data); err != nil {
		return Prompt{}, fmt.Errorf("render %s user prompt: %w", name, err)
	}
	return Prompt{
		System: strings.TrimSpace(sys.String()),
		User:   strings.TrimSpace(user.String()),
	}, nil
}

func sanitizeGradeData(d GradeData) GradeData {
	d.Passage = sanitize(d.Passage, "[No passage provided]")
	d.Question = sanitize(d.Question, "[No question provided]")
	d.CorrectAnswer = sanitize(d.CorrectAnswer, "[No correct answer provided]")
	d.UserAnswer = sanitize(d.UserAnswer, "[No answer provided]")
	return d
}

// sanitize strips tags the templates use as delimiters, so that learner or
// model text cannot close them early, and truncates very long input.
func sanitize(s, empty string) string {
	s = learnerAnswerRegex.ReplaceAllString(s, "")
	s = passageRegex.ReplaceAllString(s, "")
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if s == "" {
		return empty
	}
	if utf8.RuneCountInString(s) > maxInputRunes {
		runes := []rune(s)
		s = string(runes[:maxInputRunes]) + "\n\n[Text truncated due to length]"
	}
	return s
}
