package core

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/Rorical/RoriTalk/internal/models"
)

const (
	SettingVoice   = "voice"
	SettingEmotion = "emotion"
	SettingSpeed   = "speed"
	SettingFormat  = "format"

	MinSpeed = 0.1
	MaxSpeed = 3.0
)

var (
	Voices   = []string{"oksana", "jane", "ermil", "zahar"}
	Emotions = []string{"neutral", "good", "evil"}
	Formats  = []string{"oggopus"}
)

// SettingsStore keeps the TTS settings attached to outgoing conversation requests.
// Snapshots are plain values, so a later Set never changes one already handed out.
type SettingsStore struct {
	mu      sync.RWMutex
	current models.TtsSettings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{current: models.DefaultTtsSettings()}
}

func (s *SettingsStore) Snapshot() models.TtsSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces one field and returns the resulting snapshot. Speed accepts a float or
// its string form; the other keys take strings.
func (s *SettingsStore) Set(key string, value any) (models.TtsSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	switch key {
	case SettingVoice:
		v, err := pickOne(key, value, Voices)
		if err != nil {
			return s.current, err
		}
		next.Voice = v
	case SettingEmotion:
		v, err := pickOne(key, value, Emotions)
		if err != nil {
			return s.current, err
		}
		next.Emotion = v
	case SettingFormat:
		v, err := pickOne(key, value, Formats)
		if err != nil {
			return s.current, err
		}
		next.Format = v
	case SettingSpeed:
		speed, err := toSpeed(value)
		if err != nil {
			return s.current, err
		}
		next.Speed = speed
	default:
		return s.current, fmt.Errorf("unknown setting %q", key)
	}

	s.current = next
	return next, nil
}

func pickOne(key string, value any, allowed []string) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, value)
	}
	if !slices.Contains(allowed, v) {
		return "", fmt.Errorf("%s must be one of %v, got %q", key, allowed, v)
	}
	return v, nil
}

func toSpeed(value any) (float64, error) {
	var speed float64
	switch v := value.(type) {
	case float64:
		speed = v
	case float32:
		speed = float64(v)
	case int:
		speed = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("speed must be a number: %w", err)
		}
		speed = parsed
	default:
		return 0, fmt.Errorf("speed must be a number, got %T", value)
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return 0, fmt.Errorf("speed must be between %.1f and %.1f, got %g", MinSpeed, MaxSpeed, speed)
	}
	return speed, nil
}
