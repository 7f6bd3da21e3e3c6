package mood

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strings"
)

// ErrNoSamples is returned when training data contains no usable rows.
var ErrNoSamples = errors.New("no training samples")

// Sample is one labelled training example.
type Sample struct {
	Label Label
	Text  string
}

// TrainConfig holds training parameters.
type TrainConfig struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultTrainConfig returns the parameters used by the train command.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       200,
		LearningRate: 0.1,
		L2:           0.0001,
	}
}

// ReadSamples parses a CSV with "Emotion" and "Text" columns (any order,
// case-insensitive header). Rows with an empty label or text are skipped.
func ReadSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	labelCol, textCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "emotion", "label", "mood":
			labelCol = i
		case "text":
			textCol = i
		}
	}
	if labelCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("header %v: need emotion and text columns", header)
	}

	var samples []Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if labelCol >= len(record) || textCol >= len(record) {
			continue
		}

		label := strings.ToLower(strings.TrimSpace(record[labelCol]))
		text := strings.TrimSpace(record[textCol])
		if label == "" || text == "" {
			continue
		}
		samples = append(samples, Sample{Label: Label(label), Text: text})
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return samples, nil
}

// Train fits a multinomial logistic regression over token counts.
// Samples are visited in their given order, so training is deterministic.
func Train(samples []Sample, cfg TrainConfig) (*Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultTrainConfig().Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultTrainConfig().LearningRate
	}

	classIndex := make(map[Label]int)
	var classes []Label
	for _, s := range samples {
		if _, ok := classIndex[s.Label]; !ok {
			classIndex[s.Label] = 0
			classes = append(classes, s.Label)
		}
	}
	slices.Sort(classes)
	for i, c := range classes {
		classIndex[c] = i
	}

	docs := make([][]feature, len(samples))
	vocab := make(map[string]int)
	tokenized := make([][]string, len(samples))
	var words []string
	for i, s := range samples {
		tokenized[i] = Tokenize(cleanText(s.Text))
		for _, tok := range tokenized[i] {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = 0
				words = append(words, tok)
			}
		}
	}
	slices.Sort(words)
	for i, w := range words {
		vocab[w] = i
	}
	for i, toks := range tokenized {
		docs[i] = countFeatures(toks, vocab)
	}

	coef := make([][]float64, len(classes))
	for i := range coef {
		coef[i] = make([]float64, len(vocab))
	}
	intercept := make([]float64, len(classes))
	probs := make([]float64, len(classes))

	for range cfg.Epochs {
		for i, doc := range docs {
			softmax(coef, intercept, doc, probs)
			target := classIndex[samples[i].Label]

			for c := range classes {
				grad := probs[c]
				if c == target {
					grad -= 1
				}
				for _, f := range doc {
					coef[c][f.idx] -= cfg.LearningRate * (grad*f.n + cfg.L2*coef[c][f.idx])
				}
				intercept[c] -= cfg.LearningRate * grad
			}
		}
	}

	return &Model{
		Classes:    classes,
		Vocabulary: vocab,
		Coef:       coef,
		Intercept:  intercept,
	}, nil
}

func softmax(coef [][]float64, intercept []float64, doc []feature, out []float64) {
	maxScore := math.Inf(-1)
	for c := range coef {
		score := intercept[c]
		for _, f := range doc {
			score += coef[c][f.idx] * f.n
		}
		out[c] = score
		maxScore = max(maxScore, score)
	}

	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxScore)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}

var userHandle = regexp.MustCompile(`@\w+`)

// cleanText drops @handles and stop words before training.
func cleanText(text string) string {
	text = userHandle.ReplaceAllString(text, " ")
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if !stopWords[strings.ToLower(strings.Trim(f, ".,!?;:\"'"))] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "again": true, "all": true, "am": true,
	"an": true, "and": true, "any": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "before": true, "being": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true, "doing": true,
	"for": true, "from": true, "had": true, "has": true, "have": true, "having": true,
	"he": true, "her": true, "here": true, "him": true, "his": true, "how": true,
	"i": true, "if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "just": true, "me": true, "my": true, "myself": true, "of": true,
	"on": true, "or": true, "our": true, "she": true, "so": true, "some": true,
	"than": true, "that": true, "the": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true, "to": true,
	"too": true, "up": true, "us": true, "was": true, "we": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true, "who": true,
	"why": true, "will": true, "with": true, "would": true, "you": true, "your": true,
}
