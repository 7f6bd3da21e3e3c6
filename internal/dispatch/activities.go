package dispatch

import "github.com/justestif/smart-mood-player/internal/mood"

// Activity describes how to respond to a request for activity music.
type Activity struct {
	Status  string
	Message string
	// Mood selects the playlist query.
	Mood mood.Label
}

func defaultActivities() map[string]Activity {
	return map[string]Activity{
		"studying": {
			Status:  "Finding music to help you focus...",
			Message: "Good luck with your studies! Here's some calm music to help you concentrate.",
			Mood:    mood.Calm,
		},
		"workout": {
			Status:  "Pumping up the energy...",
			Message: "Let's get moving! Here's some high-energy music for your workout.",
			Mood:    mood.Energetic,
		},
		"relaxation": {
			Status:  "Finding something soothing...",
			Message: "Time to unwind. Here's something relaxing.",
			Mood:    mood.Calm,
		},
		"party": {
			Status:  "Getting the party started...",
			Message: "Party time! Here are some upbeat tracks.",
			Mood:    mood.Happy,
		},
		"work": {
			Status:  "Finding some background music...",
			Message: "Here's some music to keep you productive.",
			Mood:    mood.Calm,
		},
		"gaming": {
			Status:  "Loading up some gaming tracks...",
			Message: "Game on! Here's some energetic music for your session.",
			Mood:    mood.Energetic,
		},
		"general": {
			Status:  "Searching for something fitting...",
			Message: "Here's some music for whatever you're up to.",
			Mood:    mood.Happy,
		},
	}
}
