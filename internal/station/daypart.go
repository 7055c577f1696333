package station

import "time"

// Daypart describes the broadcast mood for a time of day. The script
// generator folds this into the intro and the cover artist into its prompt.
type Daypart struct {
	Name          string
	Mood          string
	Tempo         string
	TargetMinutes int
}

// DaypartFor maps an hour of day onto its broadcast style.
// Morning 05-11, afternoon 12-16, evening 17-21, night otherwise.
func DaypartFor(t time.Time) Daypart {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 12:
		return Daypart{Name: "morning", Mood: "energetic and optimistic", Tempo: "upbeat", TargetMinutes: 12}
	case hour >= 12 && hour < 17:
		return Daypart{Name: "afternoon", Mood: "relaxed and informative", Tempo: "steady", TargetMinutes: 10}
	case hour >= 17 && hour < 22:
		return Daypart{Name: "evening", Mood: "calm and reflective", Tempo: "easy", TargetMinutes: 10}
	default:
		return Daypart{Name: "night", Mood: "chill and a little mysterious", Tempo: "slow", TargetMinutes: 8}
	}
}
