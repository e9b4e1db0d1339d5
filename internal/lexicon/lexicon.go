// Package lexicon loads the keyword groups and educational content used by
// the heuristic analysis engine. A default lexicon is embedded in the binary;
// a replacement file can be supplied at startup.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"trustnet/internal/model"
)

//go:embed lexicon.yaml
var embedded []byte

// Technique is a keyword-scored manipulation technique. Its confidence grows
// with the number of distinct keywords found: min(Max, Base + Step*n).
type Technique struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Keywords       []string `yaml:"keywords"`
	Base           float64  `yaml:"base"`
	Step           float64  `yaml:"step"`
	Max            float64  `yaml:"max"`
	Severity       string   `yaml:"severity"`
	HighSeverityAt int      `yaml:"high_severity_at"`
	Indicators     []string `yaml:"indicators"`
	Mitigation     []string `yaml:"mitigation"`
}

// Pattern is a technique detected only in deep analysis, with a fixed confidence.
type Pattern struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns"`
	Confidence  float64  `yaml:"confidence"`
	Severity    string   `yaml:"severity"`
	Indicators  []string `yaml:"indicators"`
	Mitigation  []string `yaml:"mitigation"`
}

type EducationalContext struct {
	Explanation string   `yaml:"explanation" json:"explanation"`
	Resources   []string `yaml:"resources" json:"resources"`
	Examples    []string `yaml:"examples" json:"examples"`
}

type Lexicon struct {
	QuickEmotionalKeywords []string                      `yaml:"quick_emotional_keywords"`
	Techniques             []Technique                   `yaml:"techniques"`
	DeepPatterns           []Pattern                     `yaml:"deep_patterns"`
	EducationalContexts    map[string]EducationalContext `yaml:"educational_contexts"`
	DefaultContext         EducationalContext            `yaml:"default_context"`
	Categories             []string                      `yaml:"categories"`
	FeedItems              []model.FeedItem              `yaml:"feed_items"`
	TrendingPatterns       []model.TrendingPattern       `yaml:"trending_patterns"`
}

var defaultOnce = sync.OnceValues(func() (*Lexicon, error) {
	return Parse(embedded)
})

// Default returns the embedded lexicon. It is parsed once and shared; callers must not mutate it.
func Default() (*Lexicon, error) {
	return defaultOnce()
}

// Load reads a lexicon from path, or returns Default when path is empty.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Lexicon, error) {
	var l Lexicon
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Lexicon) validate() error {
	var errs []error
	if len(l.Techniques) == 0 {
		errs = append(errs, errors.New("lexicon: no techniques"))
	}
	for _, t := range l.Techniques {
		if t.ID == "" || len(t.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("lexicon: technique %q needs an id and keywords", t.ID))
		}
		if t.Max < 0 || t.Max > 1 || t.Base < 0 {
			errs = append(errs, fmt.Errorf("lexicon: technique %q has confidence outside [0,1]", t.ID))
		}
	}
	for _, p := range l.DeepPatterns {
		if p.ID == "" || len(p.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("lexicon: pattern %q needs an id and patterns", p.ID))
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			errs = append(errs, fmt.Errorf("lexicon: pattern %q has confidence outside [0,1]", p.ID))
		}
	}
	seen := make(map[string]bool, len(l.FeedItems))
	for _, it := range l.FeedItems {
		if it.ID == "" || seen[it.ID] {
			errs = append(errs, fmt.Errorf("lexicon: feed item %q is missing or duplicated", it.ID))
		}
		seen[it.ID] = true
	}
	return errors.Join(errs...)
}

// Context returns the educational context for a verdict label, or the default context.
func (l *Lexicon) Context(verdict string) EducationalContext {
	if c, ok := l.EducationalContexts[strings.ToLower(verdict)]; ok {
		return c
	}
	return l.DefaultContext
}

// CountKeywords returns how many distinct keywords occur in content, ignoring case.
func CountKeywords(content string, keywords []string) int {
	lower := strings.ToLower(content)
	n := 0
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			n++
		}
	}
	return n
}

// MatchedKeywords returns the keywords that occur in content, ignoring case.
func MatchedKeywords(content string, keywords []string) []string {
	lower := strings.ToLower(content)
	var out []string
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			out = append(out, k)
		}
	}
	return out
}

// Confidence is the technique's score for n matched keywords.
func (t Technique) Confidence(n int) float64 {
	return min(t.Max, t.Base+t.Step*float64(n))
}

// SeverityFor escalates to high once n reaches HighSeverityAt, when set.
func (t Technique) SeverityFor(n int) string {
	if t.HighSeverityAt > 0 && n >= t.HighSeverityAt {
		return model.SeverityHigh
	}
	return t.Severity
}

func (p Pattern) Matches(content string) bool {
	return CountKeywords(content, p.Patterns) > 0
}
