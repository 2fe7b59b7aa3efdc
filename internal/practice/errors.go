package practice

import "fmt"

// GenerationError reports a failed or malformed passage generation.
type GenerationError struct {
	Topic string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate passage on %q: %v", e.Topic, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GradingError reports a failed grading call. For a whole submission Failed
// counts the questions whose grading failed and Err joins their causes.
type GradingError struct {
	Question string
	Failed   int
	Total    int
	Err      error
}

func (e *GradingError) Error() string {
	if e.Total > 0 {
		return fmt.Sprintf("grading failed for %d of %d questions: %v", e.Failed, e.Total, e.Err)
	}
	return fmt.Sprintf("grade answer to %q: %v", e.Question, e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }
