// Package scan defines the barcode capture contract: a lazy, restartable
// sequence of decode attempts, each either a decoded token or not-found.
package scan

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

// Attempt is one decode try.
type Attempt struct {
	Text  string
	Found bool
}

// Source produces decode attempts. Each call to Attempts starts a new pass.
type Source interface {
	Attempts() iter.Seq[Attempt]
}

// LineSource reads tokens from a keyboard-wedge scanner or a pipe:
// one token per line, blank lines are not-found attempts.
type LineSource struct {
	r *bufio.Reader
}

// NewLineSource wraps r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: bufio.NewReader(r)}
}

// Attempts yields until the reader is exhausted or the consumer stops.
// Restarting continues from the unread input.
func (s *LineSource) Attempts() iter.Seq[Attempt] {
	return func(yield func(Attempt) bool) {
		for {
			line, err := s.r.ReadString('\n')
			if line != "" || err == nil {
				tok := strings.TrimSpace(line)
				if !yield(Attempt{Text: tok, Found: tok != ""}) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// Decoded filters a sequence down to found tokens.
func Decoded(seq iter.Seq[Attempt]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for a := range seq {
			if a.Found && !yield(a.Text) {
				return
			}
		}
	}
}

// First returns the first decoded token, or false when the sequence ends without one.
func First(seq iter.Seq[Attempt]) (string, bool) {
	for tok := range Decoded(seq) {
		return tok, true
	}
	return "", false
}
