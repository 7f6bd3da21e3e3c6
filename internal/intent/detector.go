package intent

import (
	"maps"
	"strings"
)

// Detector maps text to an Utterance. It holds no per-conversation state:
// the caller passes the conversation context in, which keeps detection a
// pure function of (text, context).
type Detector struct {
	artistAliases map[string]string
}

// Option configures a Detector.
type Option func(*Detector)

// WithArtistAlias adds a canonical spelling for an artist name,
// e.g. "lisa" -> "LiSA". Keys are matched case-insensitively.
func WithArtistAlias(name, canonical string) Option {
	return func(d *Detector) {
		d.artistAliases[strings.ToLower(name)] = canonical
	}
}

// New creates a Detector with the built-in rule table.
func New(opts ...Option) *Detector {
	d := &Detector{artistAliases: maps.Clone(defaultArtistAliases)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect classifies text outside of any conversation.
func (d *Detector) Detect(text string) Utterance {
	return d.DetectInContext(text, ContextNone)
}

// DetectInContext classifies text given the context tag left by the
// previous turn. Rule groups are tried in a fixed order (greeting, song,
// artist, mood, activity, genre, feedback, help) and the first match wins.
// Anything unmatched is Chat with the original text as entity.
func (d *Detector) DetectInContext(text string, current Context) Utterance {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if isGreeting(normalized) {
		return Utterance{Intent: Greeting, Context: current}
	}
	if u, ok := d.matchSong(normalized); ok {
		return u
	}
	if u, ok := d.matchArtist(normalized); ok {
		return u
	}
	if u, ok := matchMood(normalized); ok {
		return u
	}
	if u, ok := matchActivity(normalized); ok {
		return u
	}
	if u, ok := matchGenre(normalized); ok {
		return u
	}
	if current.AwaitsFeedback() {
		if u, ok := matchFeedback(normalized); ok {
			return u
		}
	}
	if containsAny(normalized, helpKeywords) {
		return Utterance{Intent: Help, Context: current}
	}
	return Utterance{Intent: Chat, Entity: text, Context: current}
}

func isGreeting(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	if greetingWords[strings.TrimRight(fields[0], ".,!?")] {
		return true
	}
	for _, phrase := range greetingPhrases {
		if strings.HasPrefix(text, phrase) {
			return true
		}
	}
	return false
}

func (d *Detector) matchSong(text string) (Utterance, bool) {
	for _, r := range songRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		if r.intent == ArtistSearch {
			artist := d.normalizeArtist(strings.TrimSpace(m[1]))
			return Utterance{
				Intent:   ArtistSearch,
				Entity:   artist,
				Original: m[1],
				Context:  ContextArtistSearch,
			}, true
		}

		if len(m) == 3 {
			return Utterance{
				Intent:  SongSearch,
				Entity:  strings.TrimSpace(m[1]),
				Artist:  strings.TrimSpace(m[2]),
				Context: ContextSongSearch,
			}, true
		}

		title := strings.TrimSpace(songTitleNoise.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		return Utterance{
			Intent:   SongSearch,
			Entity:   title,
			Original: m[1],
			Context:  ContextSongSearch,
		}, true
	}
	return Utterance{}, false
}

func (d *Detector) matchArtist(text string) (Utterance, bool) {
	for _, r := range artistRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return Utterance{
			Intent:   ArtistSearch,
			Entity:   d.normalizeArtist(strings.TrimSpace(m[1])),
			Original: m[1],
			Context:  ContextArtistSearch,
		}, true
	}
	return Utterance{}, false
}

func (d *Detector) normalizeArtist(name string) string {
	if canonical, ok := d.artistAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

func matchMood(text string) (Utterance, bool) {
	for _, r := range moodRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		if strings.Contains(text, "i want to listen to") {
			for _, mood := range directMoods {
				if strings.Contains(text, mood) {
					return Utterance{
						Intent:   DirectMusicSearch,
						Entity:   mood,
						Mood:     mood,
						Original: text,
						Context:  ContextDirectMusicSearch,
					}, true
				}
			}
		}

		switch {
		case strings.Contains(text, "want to die"):
			return moodUtterance("sad", "want to die"), true
		case strings.Contains(text, "life is"):
			if containsAny(text, []string{"hard", "difficult", "tough", "bad"}) {
				return moodUtterance("sad", text), true
			}
			if containsAny(text, []string{"great", "good", "amazing"}) {
				return moodUtterance("happy", text), true
			}
			continue
		case strings.Contains(text, "can't take"), strings.Contains(text, "can't handle"):
			return moodUtterance("sad", text), true
		}

		if r.re.NumSubexp() >= 1 {
			phrase := strings.TrimSpace(m[1])
			return moodUtterance(CategorizeMood(phrase), phrase), true
		}
		return moodUtterance(CategorizeMood(text), text), true
	}
	return Utterance{}, false
}

func moodUtterance(bucket, original string) Utterance {
	return Utterance{
		Intent:   MoodSearch,
		Entity:   bucket,
		Mood:     bucket,
		Original: original,
		Context:  ContextMoodSearch,
	}
}

// CategorizeMood buckets a free-form phrase into one of happy, sad,
// energetic, calm, romantic, angry or "general".
func CategorizeMood(phrase string) string {
	phrase = strings.ToLower(phrase)
	for _, g := range moodBuckets {
		if containsAny(phrase, g.keywords) {
			return g.name
		}
	}
	return GeneralBucket
}

func matchActivity(text string) (Utterance, bool) {
	for _, r := range activityRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		phrase := strings.TrimSpace(m[1])
		return Utterance{
			Intent:   ActivitySearch,
			Entity:   CategorizeActivity(phrase),
			Original: phrase,
			Context:  ContextActivitySearch,
		}, true
	}
	return Utterance{}, false
}

// CategorizeActivity maps an activity phrase onto studying, workout,
// relaxation, party, work, gaming or "general".
func CategorizeActivity(phrase string) string {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if activity, ok := activityAliases[phrase]; ok {
		return activity
	}
	for _, g := range activityKeywords {
		if containsAny(phrase, g.keywords) {
			return g.name
		}
	}
	return GeneralBucket
}

func matchGenre(text string) (Utterance, bool) {
	for _, g := range genreKeywords {
		if containsAny(text, g.keywords) {
			return Utterance{
				Intent:  GenreSearch,
				Entity:  g.name,
				Context: ContextGenreSearch,
			}, true
		}
	}
	return Utterance{}, false
}

func matchFeedback(text string) (Utterance, bool) {
	positive := containsAny(text, positiveFeedback)
	negative := containsAny(text, negativeFeedback)
	if !positive && !negative {
		return Utterance{}, false
	}

	entity := "negative"
	if positive {
		entity = "positive"
	}
	return Utterance{
		Intent:  Feedback,
		Entity:  entity,
		Context: ContextFeedback,
	}, true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
