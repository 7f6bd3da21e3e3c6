// Package mood predicts a mood label from free text with a bag-of-words
// linear classifier and maps labels onto mood buckets and search queries.
package mood

import "strings"

// Label is a mood produced by the classifier or by the intent rules.
type Label string

const (
	Happy     Label = "happy"
	Sad       Label = "sad"
	Angry     Label = "angry"
	Calm      Label = "calm"
	Energetic Label = "energetic"
	Romantic  Label = "romantic"
	Neutral   Label = "neutral"
	Tired     Label = "tired"
	Excited   Label = "excited"
	Fear      Label = "fear"
	Disgust   Label = "disgust"
	Surprise  Label = "surprise"

	// General is the bucket for text no keyword could place.
	General Label = "general"
)

// IsNeutral reports whether the label carries no usable mood.
// A neutral label never overrides pattern-derived intents.
func (l Label) IsNeutral() bool {
	switch Label(strings.ToLower(string(l))) {
	case "", Neutral, General, "unknown":
		return true
	}
	return false
}

// bucketOf folds classifier labels (including the names used by common
// emotion datasets) into the six canonical buckets.
var bucketOf = map[Label]Label{
	Happy:     Happy,
	Sad:       Sad,
	Angry:     Angry,
	Calm:      Calm,
	Energetic: Energetic,
	Romantic:  Romantic,
	Excited:   Energetic,
	Tired:     Calm,
	Fear:      Calm,
	Disgust:   Angry,
	Surprise:  Happy,
	"joy":     Happy,
	"sadness": Sad,
	"anger":   Angry,
	"shame":   Sad,
	"relaxed": Calm,
	"love":    Romantic,
}

// Bucket returns the canonical mood bucket for a label, or General.
func Bucket(l Label) Label {
	if b, ok := bucketOf[Label(strings.ToLower(string(l)))]; ok {
		return b
	}
	return General
}

// Canonical returns the bucket name for labels that have one and the
// lowercased label otherwise, so dataset names like "joy" never reach
// users.
func Canonical(l Label) Label {
	if b := Bucket(l); b != General {
		return b
	}
	return Label(strings.ToLower(string(l)))
}

var searchKeywords = map[Label]string{
	Happy:     "happy hits",
	Sad:       "sad songs",
	Angry:     "angry rock",
	Calm:      "calm chill",
	Energetic: "energetic workout",
	Romantic:  "romantic love songs",
	Tired:     "sleepy chill",
	Excited:   "party hits",
	Fear:      "calming relaxing",
	Disgust:   "heavy metal",
	Surprise:  "feel good discoveries",
	Neutral:   "top hits",
	General:   "top hits",
}

// SearchKeyword returns the playlist query used for a mood.
func SearchKeyword(l Label) string {
	l = Label(strings.ToLower(string(l)))
	if kw, ok := searchKeywords[l]; ok {
		return kw
	}
	return searchKeywords[Bucket(l)]
}
