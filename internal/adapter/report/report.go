// Package report renders run outcomes for people and scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"passwordCrackerEngine/internal/core/domain"
	"strings"
	"time"
	"unicode/utf8"
)

// Summary is what gets printed once a run ends.
type Summary struct {
	SessionID string
	Target    string
	Outcome   domain.Outcome
}

// Render writes a short human readable account of the outcome.
func Render(w io.Writer, s Summary) error {
	var b strings.Builder
	o := s.Outcome

	switch o.Kind {
	case domain.OutcomeFound:
		if utf8.Valid(o.Password) {
			fmt.Fprintf(&b, "Success! Found password: %s\n", o.Password)
		} else {
			fmt.Fprintf(&b, "Success! Found password, but it is not valid UTF-8. Hex: %s\n", Hex(o.Password))
		}
	case domain.OutcomeExhausted:
		b.WriteString("Search space exhausted, password not found.\n")
	case domain.OutcomeCancelled:
		pos := uint64(0)
		if o.Checkpoint != nil {
			pos = o.Checkpoint.Position
		}
		fmt.Fprintf(&b, "Search cancelled, checkpoint saved at candidate %d.\n", pos)
		if s.SessionID != "" {
			fmt.Fprintf(&b, "Resume with: cracker resume %s\n", s.SessionID)
		}
		if o.DrainTimedOut {
			b.WriteString("Some attempts were still running when the grace period ended; a few candidates will be tried again on resume.\n")
		}
	default:
		return fmt.Errorf("unknown outcome %q", o.Kind)
	}

	if s.Target != "" {
		fmt.Fprintf(&b, "Target: %s\n", s.Target)
	}
	fmt.Fprintf(&b, "Candidates dispatched: %d in %s\n", o.Dispatched, o.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonSummary struct {
	SessionID     string  `json:"sessionId,omitempty"`
	Target        string  `json:"target,omitempty"`
	Outcome       string  `json:"outcome"`
	Password      string  `json:"password,omitempty"`
	PasswordHex   string  `json:"passwordHex,omitempty"`
	Checkpoint    *uint64 `json:"checkpoint,omitempty"`
	Dispatched    uint64  `json:"dispatched"`
	DurationMS    int64   `json:"durationMs"`
	DrainTimedOut bool    `json:"drainTimedOut,omitempty"`
}

// RenderJSON writes the outcome as a single JSON object.
func RenderJSON(w io.Writer, s Summary) error {
	o := s.Outcome
	out := jsonSummary{
		SessionID:     s.SessionID,
		Target:        s.Target,
		Outcome:       string(o.Kind),
		Dispatched:    o.Dispatched,
		DurationMS:    o.Duration.Milliseconds(),
		DrainTimedOut: o.DrainTimedOut,
	}
	if o.Kind == domain.OutcomeFound {
		if utf8.Valid(o.Password) {
			out.Password = string(o.Password)
		} else {
			out.PasswordHex = Hex(o.Password)
		}
	}
	if o.Checkpoint != nil {
		pos := o.Checkpoint.Position
		out.Checkpoint = &pos
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Hex renders bytes as space separated lowercase pairs.
func Hex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}
