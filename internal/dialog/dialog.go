// Package dialog loads the canned-response book: chat trigger/response
// pairs, per-mood empathetic responses and the greeting/help texts.
package dialog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrBookNotFound is returned when the dialog file does not exist.
var ErrBookNotFound = errors.New("dialog book not found")

// Pair maps a trigger phrase to candidate responses.
type Pair struct {
	Trigger   string   `yaml:"trigger"`
	Responses []string `yaml:"responses"`
}

// MoodEntry holds the canned responses for one mood bucket.
type MoodEntry struct {
	Responses []string `yaml:"responses"`
}

// Book is the parsed dialog file. It is read-only after loading.
type Book struct {
	Greetings        []string             `yaml:"greetings"`
	Help             []string             `yaml:"help"`
	Fallbacks        []string             `yaml:"fallbacks"`
	ContextFallbacks map[string]string    `yaml:"context_fallbacks"`
	Moods            map[string]MoodEntry `yaml:"moods"`
	Pairs            []Pair               `yaml:"pairs"`

	index map[string][]string
}

// Load reads and parses a dialog book from disk.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, path)
		}
		return nil, fmt.Errorf("reading dialog book: %w", err)
	}
	return Parse(data)
}

// Parse decodes a dialog book from YAML.
func Parse(data []byte) (*Book, error) {
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding dialog book: %w", err)
	}
	if len(b.Fallbacks) == 0 {
		return nil, errors.New("dialog book has no fallbacks")
	}
	b.buildIndex()
	return &b, nil
}

func (b *Book) buildIndex() {
	b.index = make(map[string][]string, len(b.Pairs))
	for _, p := range b.Pairs {
		key := normalize(p.Trigger)
		b.index[key] = append(b.index[key], p.Responses...)
	}
}

// Match returns the responses for the trigger matching text exactly, or
// else for the trigger sharing the most words with it. Nil when no
// trigger shares a word. Ties go to the earlier trigger in the file.
func (b *Book) Match(text string) []string {
	normalized := normalize(text)
	if responses, ok := b.index[normalized]; ok {
		return responses
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		words[w] = true
	}

	var best []string
	bestOverlap := 0
	for _, p := range b.Pairs {
		seen := make(map[string]bool)
		overlap := 0
		for _, w := range strings.Fields(normalize(p.Trigger)) {
			if words[w] && !seen[w] {
				seen[w] = true
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = b.index[normalize(p.Trigger)]
		}
	}
	return best
}

// MoodResponses returns the canned responses for a mood bucket.
func (b *Book) MoodResponses(bucket string) []string {
	return b.Moods[strings.ToLower(bucket)].Responses
}

// ContextFallback returns the fallback line for a conversation context,
// or "" when the book has none.
func (b *Book) ContextFallback(context string) string {
	return b.ContextFallbacks[context]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
