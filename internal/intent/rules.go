package intent

import "regexp"

type patternRule struct {
	re     *regexp.Regexp
	intent Intent
}

func rule(expr string, in Intent) patternRule {
	return patternRule{re: regexp.MustCompile(expr), intent: in}
}

// Order matters: the first matching rule wins.
var songRules = []patternRule{
	rule(`(?i)play\s+(.+?)\s+(?:by|from)\s+(.+)`, SongSearch),
	rule(`(?i)i\s+want\s+(?:to\s+hear\s+)?(?:the\s+)?(?:song\s+)?(.+?)\s+(?:by|from)\s+(.+)`, SongSearch),
	rule(`(?i)i\s+want\s+to\s+listen\s+to\s+(?:the\s+)?(?:song\s+)?(.+?)\s+(?:by|from)\s+(.+)`, SongSearch),
	rule(`(?i)i\s+want\s+to\s+hear\s+(?:the\s+)?song\s+from\s+(.+)`, ArtistSearch),
	rule(`(?i)i\s+want\s+to\s+listen\s+to\s+(?:the\s+)?(?:song\s+)?(.+)`, SongSearch),
	rule(`(?i)i\s+want\s+to\s+hear\s+(?:the\s+)?(?:song\s+)?(.+)`, SongSearch),
	rule(`(?i)find\s+(?:me\s+)?(?:the\s+)?song\s+(.+)`, SongSearch),
	rule(`(?i)search\s+for\s+(.+?)\s+(?:by|from)\s+(.+)`, SongSearch),
	rule(`(?i)play\s+(?:the\s+)?(?:song\s+)?(.+)`, SongSearch),
	rule(`(?i)(?:the\s+)?song\s+(?:from|by)\s+(?:the\s+)?(.+)`, ArtistSearch),
}

var artistRules = []patternRule{
	rule(`(?i)play\s+songs?\s+by\s+(.+)`, ArtistSearch),
	rule(`(?i)find\s+music\s+(?:by|from)\s+(.+)`, ArtistSearch),
	rule(`(?i)show\s+(?:me\s+)?(?:songs?|tracks?)\s+by\s+(.+)`, ArtistSearch),
	rule(`(?i)music\s+by\s+(.+)`, ArtistSearch),
}

var moodRules = []patternRule{
	rule(`(?i)i(?:'m|\s+am)\s+feeling\s+(.+)`, MoodSearch),
	rule(`(?i)i\s+feel\s+(.+)`, MoodSearch),
	rule(`(?i)feeling\s+(.+)`, MoodSearch),
	rule(`(?i)i\s+want\s+to\s+die`, MoodSearch),
	rule(`(?i)i\s+am\s+(sad|depressed|down|upset|angry|mad|happy|excited|tired|stressed|anxious|worried)`, MoodSearch),
	rule(`(?i)i'm\s+(sad|depressed|down|upset|angry|mad|happy|excited|tired|stressed|anxious|worried)`, MoodSearch),
	rule(`(?i)i\s+(hate|love)\s+(.+)`, MoodSearch),
	rule(`(?i)life\s+is\s+(hard|difficult|tough|great|good|bad)`, MoodSearch),
	rule(`(?i)i\s+can't\s+(take|handle)\s+(.+)`, MoodSearch),
	rule(`(?i)i\s+want\s+to\s+listen\s+to\s+(sad|happy|angry|calm|energetic)\s+(?:songs?|music)`, DirectMusicSearch),
	rule(`(?i)play\s+(sad|happy|angry|calm|energetic)\s+(?:songs?|music)`, DirectMusicSearch),
	rule(`(?i)find\s+(sad|happy|angry|calm|energetic)\s+(?:songs?|music)`, DirectMusicSearch),
}

var activityRules = []patternRule{
	rule(`(?i)music\s+for\s+(.+)`, ActivitySearch),
	rule(`(?i)songs?\s+for\s+(.+)`, ActivitySearch),
	rule(`(?i)playlist\s+for\s+(.+)`, ActivitySearch),
	rule(`(?i)i\s+want\s+to\s+(study|workout|work|relax|sleep|dance|party|exercise|focus|concentrate)`, ActivitySearch),
	rule(`(?i)i\s+need\s+to\s+(study|workout|work|relax|sleep|dance|party|exercise|focus|concentrate)`, ActivitySearch),
	rule(`(?i)want\s+to\s+(study|workout|work|relax|sleep|dance|party|exercise|focus|concentrate)`, ActivitySearch),
	rule(`(?i)need\s+to\s+(study|workout|work|relax|sleep|dance|party|exercise|focus|concentrate)`, ActivitySearch),
}

// songTitleNoise strips a dangling "by"/"from" left in single-group captures.
var songTitleNoise = regexp.MustCompile(`(?i)\b(?:the\s+song\s+)?(?:from|by)\s+`)

type keywordGroup struct {
	name     string
	keywords []string
}

var greetingWords = map[string]bool{
	"hi":        true,
	"hello":     true,
	"hey":       true,
	"hola":      true,
	"greetings": true,
}

var greetingPhrases = []string{"good morning", "good afternoon", "good evening"}

// directMoods are the moods a "listen to <mood> songs" request can name.
var directMoods = []string{"sad", "happy", "angry", "calm", "energetic"}

var moodBuckets = []keywordGroup{
	{"happy", []string{"happy", "joyful", "cheerful", "excited", "good", "great", "amazing", "wonderful", "fantastic", "love", "loving"}},
	{"sad", []string{"sad", "down", "depressed", "blue", "unhappy", "melancholic", "die", "death", "hurt", "pain", "crying", "tears", "lonely", "empty", "hopeless", "worthless", "hate", "hating"}},
	{"energetic", []string{"energetic", "pumped", "energized", "active", "hyped", "motivated"}},
	{"calm", []string{"calm", "peaceful", "relaxed", "chill", "tranquil", "serene"}},
	{"romantic", []string{"romantic", "love", "dreamy", "passionate", "loving"}},
	{"angry", []string{"angry", "mad", "furious", "rage", "aggressive", "frustrated", "annoyed", "pissed", "irritated"}},
}

var activityAliases = map[string]string{
	"study":        "studying",
	"studying":     "studying",
	"focus":        "studying",
	"concentrate":  "studying",
	"homework":     "studying",
	"workout":      "workout",
	"exercise":     "workout",
	"gym":          "workout",
	"training":     "workout",
	"running":      "workout",
	"relax":        "relaxation",
	"relaxation":   "relaxation",
	"meditation":   "relaxation",
	"sleep":        "relaxation",
	"rest":         "relaxation",
	"chill":        "relaxation",
	"party":        "party",
	"celebration":  "party",
	"dance":        "party",
	"dancing":      "party",
	"fun":          "party",
	"work":         "work",
	"working":      "work",
	"office":       "work",
	"productivity": "work",
	"gaming":       "gaming",
	"game":         "gaming",
	"playing":      "gaming",
}

var activityKeywords = []keywordGroup{
	{"studying", []string{"study", "studying", "focus", "concentrate", "homework"}},
	{"workout", []string{"workout", "exercise", "gym", "training", "running"}},
	{"relaxation", []string{"relax", "meditation", "sleep", "rest", "chill"}},
	{"party", []string{"party", "celebration", "dance", "dancing", "fun"}},
	{"work", []string{"work", "working", "office", "productivity"}},
	{"gaming", []string{"gaming", "game", "playing"}},
}

var genreKeywords = []keywordGroup{
	{"rock", []string{"rock", "metal", "alternative", "indie"}},
	{"pop", []string{"pop", "popular"}},
	{"jazz", []string{"jazz", "blues", "swing"}},
	{"classical", []string{"classical", "orchestra", "symphony"}},
	{"electronic", []string{"electronic", "edm", "techno", "house"}},
	{"hip-hop", []string{"hip-hop", "rap", "hip hop", "trap"}},
}

var (
	positiveFeedback = []string{"good", "great", "perfect", "yes", "like", "love", "awesome"}
	negativeFeedback = []string{"bad", "no", "don't like", "not", "different", "other"}
	helpKeywords     = []string{"help", "how", "what can you", "guide", "explain"}
)

var defaultArtistAliases = map[string]string{
	"lisa":  "LiSA",
	"sza":   "SZA",
	"ac/dc": "AC/DC",
}

// GeneralBucket is returned when no mood or activity keyword matches.
const GeneralBucket = "general"
