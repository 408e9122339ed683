package security

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"ais-rag/internal/config"
)

// maxRedactions caps the placeholder table; it is reset when full.
const maxRedactions = 1000

// Redactor swaps PII in outgoing text for placeholders such as [EMAIL_1]
// and puts the originals back into replies.
type Redactor struct {
	mu       sync.Mutex
	rules    []redactRule
	mappings map[string]string // placeholder → original value
	reverse  map[string]string // original value → placeholder
	counter  map[string]int
}

type redactRule struct {
	pattern *regexp.Regexp
	label   string
}

var builtinRules = []struct {
	name    string
	pattern string
	label   string
}{
	{"email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "EMAIL"},
	{"card", `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`, "CARD"},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b`, "SSN"},
	{"ip", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, "IP"},
	{"phone", `(?:\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}`, "PHONE"},
}

// NewRedactor builds a redactor from config. It returns nil when filtering
// is disabled or no rule is selected; a nil *Redactor passes text through.
func NewRedactor(cfg config.PIIFilterConfig) *Redactor {
	if !cfg.Enabled {
		return nil
	}
	enabled := map[string]bool{
		"email": cfg.FilterEmails,
		"phone": cfg.FilterPhones,
		"card":  cfg.FilterCards,
		"ip":    cfg.FilterIPs,
		"ssn":   cfg.FilterSSN,
	}

	r := &Redactor{}
	for _, b := range builtinRules {
		if enabled[b.name] {
			r.rules = append(r.rules, redactRule{pattern: regexp.MustCompile(b.pattern), label: b.label})
		}
	}
	if len(r.rules) == 0 {
		return nil
	}
	r.reset()
	return r
}

// Redact replaces PII in text. The same value always maps to the same
// placeholder until Reset.
func (r *Redactor) Redact(text string) string {
	if r == nil {
		return text
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.mappings) >= maxRedactions {
		r.reset()
	}

	for _, rule := range r.rules {
		text = rule.pattern.ReplaceAllStringFunc(text, func(match string) string {
			if p, ok := r.reverse[match]; ok {
				return p
			}
			r.counter[rule.label]++
			p := fmt.Sprintf("[%s_%d]", rule.label, r.counter[rule.label])
			r.mappings[p] = match
			r.reverse[match] = p
			return p
		})
	}
	return text
}

// Restore puts original values back in place of placeholders.
func (r *Redactor) Restore(text string) string {
	if r == nil {
		return text
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for p, original := range r.mappings {
		text = strings.ReplaceAll(text, p, original)
	}
	return text
}

// Reset forgets all placeholders, e.g. between conversations.
func (r *Redactor) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func (r *Redactor) reset() {
	r.mappings = make(map[string]string)
	r.reverse = make(map[string]string)
	r.counter = make(map[string]int)
}
