package models

// TtsSettings is the speech-synthesis configuration sent with every conversation request.
type TtsSettings struct {
	Voice   string  `json:"voice"`
	Emotion string  `json:"emotion"`
	Speed   float64 `json:"speed"`
	Format  string  `json:"format"`
}

func DefaultTtsSettings() TtsSettings {
	return TtsSettings{
		Voice:   "oksana",
		Emotion: "neutral",
		Speed:   1.0,
		Format:  "oggopus",
	}
}
