package mood

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handModel() *Model {
	return &Model{
		Classes:    []Label{Happy, Sad},
		Vocabulary: map[string]int{"happy": 0, "sad": 1},
		Coef:       [][]float64{{1, -1}, {-1, 1}},
		Intercept:  []float64{0, 0},
	}
}

func TestPredict(t *testing.T) {
	c, err := NewClassifier(handModel())
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want Label
	}{
		{"positive word", "so HAPPY today", Happy},
		{"negative word", "I am sad", Sad},
		{"counts matter", "sad sad happy", Sad},
		{"unknown words are neutral", "xylophone", Neutral},
		{"empty text", "", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Predict(tt.text))
		})
	}
}

func TestPredictConfidenceFloor(t *testing.T) {
	// "happy" alone scores e/(e+1/e), about 0.88.
	strict, err := NewClassifier(handModel(), WithMinConfidence(0.9))
	require.NoError(t, err)
	assert.Equal(t, Neutral, strict.Predict("happy"))

	loose, err := NewClassifier(handModel(), WithMinConfidence(0))
	require.NoError(t, err)
	label, p := loose.Score("happy")
	assert.Equal(t, Happy, label)
	assert.InDelta(t, 0.88, p, 0.01)

	label, p = loose.Score("nothing known here")
	assert.Equal(t, Neutral, label)
	assert.Zero(t, p)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"it", "so", "good", "café"}, Tokenize("It's SO good, a café!"))
	assert.Empty(t, Tokenize(""))
}

func TestNewClassifierRejectsBadShapes(t *testing.T) {
	m := handModel()
	m.Coef = m.Coef[:1]

	_, err := NewClassifier(m)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestLoadMissingModel(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, ErrModelNotFound), "got %v", err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mood.json")
	require.NoError(t, handModel().Save(path))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Label{Happy, Sad}, c.Labels())
	assert.Equal(t, Sad, c.Predict("sad"))
}

func TestLoadCorruptModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mood.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelNotFound)
}

const trainingCSV = `Emotion,Text
happy,I am so happy and joyful today
happy,what a wonderful happy sunny day
happy,feeling joyful and cheerful
sad,I feel sad and lonely tonight
sad,so sad and heartbroken crying
sad,lonely tears and sadness
angry,I am furious and angry at everyone
angry,this makes me angry and furious
angry,rage furious annoyed
calm,peaceful quiet calm evening
calm,relaxed calm and peaceful
calm,serene peaceful morning
`

func TestTrainLearnsSeparableData(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader(trainingCSV))
	require.NoError(t, err)
	require.Len(t, samples, 12)

	m, err := Train(samples, DefaultTrainConfig())
	require.NoError(t, err)
	assert.Equal(t, []Label{Angry, Calm, Happy, Sad}, m.Classes)
	assert.NotContains(t, m.Vocabulary, "and", "stop words are dropped")

	c, err := NewClassifier(m)
	require.NoError(t, err)

	tests := []struct {
		text string
		want Label
	}{
		{"such a joyful happy moment", Happy},
		{"lonely and sad", Sad},
		{"furious rage", Angry},
		{"a peaceful serene night", Calm},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Predict(tt.text))
		})
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader(trainingCSV))
	require.NoError(t, err)

	a, err := Train(samples, TrainConfig{Epochs: 20})
	require.NoError(t, err)
	b, err := Train(samples, TrainConfig{Epochs: 20})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestReadSamples(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Sample
		wantErr bool
	}{
		{
			name:  "columns in any order",
			input: "Text,Emotion\nhello there,Joy\n",
			want:  []Sample{{Label: "joy", Text: "hello there"}},
		},
		{
			name:  "skips blank rows",
			input: "Emotion,Text\nsad,\n,nothing\nsad,rain again\n",
			want:  []Sample{{Label: Sad, Text: "rain again"}},
		},
		{
			name:    "missing columns",
			input:   "foo,bar\n1,2\n",
			wantErr: true,
		},
		{
			name:    "header only",
			input:   "Emotion,Text\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadSamples(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		label Label
		want  Label
	}{
		{Happy, Happy},
		{"joy", Happy},
		{"Sadness", Sad},
		{Excited, Energetic},
		{Tired, Calm},
		{Disgust, Angry},
		{Neutral, General},
		{"bewildered", General},
	}
	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			assert.Equal(t, tt.want, Bucket(tt.label))
		})
	}
}

func TestSearchKeyword(t *testing.T) {
	assert.Equal(t, "sad songs", SearchKeyword(Sad))
	assert.Equal(t, "sad songs", SearchKeyword("sadness"))
	assert.Equal(t, "party hits", SearchKeyword(Excited))
	assert.Equal(t, "top hits", SearchKeyword("bewildered"))
}

func TestIsNeutral(t *testing.T) {
	assert.True(t, Neutral.IsNeutral())
	assert.True(t, Label("").IsNeutral())
	assert.True(t, Label("Unknown").IsNeutral())
	assert.False(t, Sad.IsNeutral())
}
