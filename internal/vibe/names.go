package vibe

// Name describes a centroid by its energy/valence quadrant:
//
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Acousticness above 0.6 appends "(Acoustic)".
func Name(centroid map[string]float32) string {
	highEnergy := centroid["energy"] > 0.6
	highValence := centroid["valence"] > 0.5

	var name string
	switch {
	case highEnergy && highValence:
		name = "Upbeat Party"
	case highEnergy:
		name = "Intense & Dark"
	case highValence:
		name = "Chill & Happy"
	default:
		name = "Reflective & Melancholy"
	}

	if centroid["acousticness"] > 0.6 {
		return name + " (Acoustic)"
	}
	return name
}
