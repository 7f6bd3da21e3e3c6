package mood

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrModelNotFound is returned when the classifier artifact does not exist.
	ErrModelNotFound = errors.New("mood model not found, run `smart-mood-player train` first")

	// ErrInvalidModel is returned when the artifact dimensions do not line up.
	ErrInvalidModel = errors.New("invalid mood model")
)

// Model is the serialized form of a trained classifier.
type Model struct {
	Classes    []Label        `json:"classes"`
	Vocabulary map[string]int `json:"vocabulary"`
	Coef       [][]float64    `json:"coef"`
	Intercept  []float64      `json:"intercept"`
}

// Validate checks that classes, weights and vocabulary agree.
func (m *Model) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	if len(m.Coef) != len(m.Classes) || len(m.Intercept) != len(m.Classes) {
		return fmt.Errorf("%w: %d classes, %d weight rows, %d intercepts",
			ErrInvalidModel, len(m.Classes), len(m.Coef), len(m.Intercept))
	}
	for i, row := range m.Coef {
		if len(row) != len(m.Vocabulary) {
			return fmt.Errorf("%w: weight row %d has %d columns, vocabulary has %d",
				ErrInvalidModel, i, len(row), len(m.Vocabulary))
		}
	}
	for token, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.Vocabulary) {
			return fmt.Errorf("%w: token %q has index %d", ErrInvalidModel, token, idx)
		}
	}
	return nil
}

// Save writes the model as JSON.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding mood model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mood model: %w", err)
	}
	return nil
}

// DefaultMinConfidence is the probability the best class needs before
// Predict reports it instead of Neutral.
const DefaultMinConfidence = 0.35

// Classifier predicts a Label for arbitrary text.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	model         *Model
	minConfidence float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMinConfidence sets the probability floor below which Predict
// returns Neutral. Zero disables the floor.
func WithMinConfidence(p float64) Option {
	return func(c *Classifier) {
		if p >= 0 && p < 1 {
			c.minConfidence = p
		}
	}
}

// Load reads a classifier artifact from disk.
func Load(path string, opts ...Option) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("reading mood model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding mood model: %w", err)
	}
	return NewClassifier(&m, opts...)
}

// NewClassifier wraps an in-memory model.
func NewClassifier(m *Model, opts ...Option) (*Classifier, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{model: m, minConfidence: DefaultMinConfidence}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Labels returns the classes the model can predict.
func (c *Classifier) Labels() []Label {
	return append([]Label(nil), c.model.Classes...)
}

// Predict returns the most probable class. Text without a single word
// from the vocabulary, or whose best class falls under the confidence
// floor, yields Neutral. Ties go to the earlier class.
func (c *Classifier) Predict(text string) Label {
	label, _ := c.Score(text)
	return label
}

// Score is Predict plus the probability of the returned class. Neutral
// results for unknown text carry probability 0.
func (c *Classifier) Score(text string) (Label, float64) {
	counts := countFeatures(Tokenize(text), c.model.Vocabulary)
	if len(counts) == 0 {
		return Neutral, 0
	}

	probs := make([]float64, len(c.model.Classes))
	softmax(c.model.Coef, c.model.Intercept, counts, probs)

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	if probs[best] < c.minConfidence {
		return Neutral, probs[best]
	}
	return c.model.Classes[best], probs[best]
}

// feature is one non-zero entry of a sparse count vector.
type feature struct {
	idx int
	n   float64
}

// countFeatures builds a sparse count vector ordered by vocabulary index.
// Tokens outside the vocabulary are ignored.
func countFeatures(tokens []string, vocab map[string]int) []feature {
	counts := make(map[int]float64)
	for _, tok := range tokens {
		if idx, ok := vocab[tok]; ok {
			counts[idx]++
		}
	}

	out := make([]feature, 0, len(counts))
	for idx, n := range counts {
		out = append(out, feature{idx: idx, n: n})
	}
	slices.SortFunc(out, func(a, b feature) int { return a.idx - b.idx })
	return out
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text and splits it into word tokens of two or more
// characters; single-character words are dropped.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
