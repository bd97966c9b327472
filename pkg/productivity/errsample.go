package productivity

import (
	"fmt"
	"strings"
)

// ErrorSample keeps the first N error messages of a run and counts the rest
type ErrorSample struct {
	limit    int
	messages []string
	dropped  int
}

func NewErrorSample(limit int) *ErrorSample {
	if limit < 0 {
		limit = 0
	}
	return &ErrorSample{limit: limit, messages: make([]string, 0, limit)}
}

func (s *ErrorSample) Add(msg string) {
	if len(s.messages) < s.limit {
		s.messages = append(s.messages, msg)
		return
	}
	s.dropped++
}

// Messages returns the retained messages
func (s *ErrorSample) Messages() []string {
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Dropped number of messages not retained
func (s *ErrorSample) Dropped() int {
	return s.dropped
}

// Total number of messages added
func (s *ErrorSample) Total() int {
	return len(s.messages) + s.dropped
}

// String renders retained messages with a "... and N more" suffix
func (s *ErrorSample) String() string {
	if s.Total() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(s.messages, "; "))
	if s.dropped > 0 {
		fmt.Fprintf(&b, "; ... and %d more", s.dropped)
	}
	return b.String()
}

// Lines returns retained messages plus the suffix line, for persistence
func (s *ErrorSample) Lines() []string {
	lines := s.Messages()
	if s.dropped > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", s.dropped))
	}
	return lines
}
