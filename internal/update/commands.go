package update

import (
	"fmt"
	"os"
	"strings"

	"github.com/Rorical/RoriTalk/internal/core"
	"github.com/Rorical/RoriTalk/internal/eventbus"
	"github.com/Rorical/RoriTalk/internal/models"
)

// Command is a slash command typed into the chat input.
type Command struct {
	Name string
	Arg  string
}

// IsCommand reports whether line should be parsed as a command instead of sent.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "/")
}

// ParseCommand splits "/name arg..." into its name and the rest of the line. The
// argument keeps inner spaces so file paths survive.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{}, fmt.Errorf("not a command: %q", line)
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{Name: name, Arg: strings.TrimSpace(arg)}, nil
}

// Event maps a command to the UI event that carries it out.
func (c Command) Event() (eventbus.UIEvent, error) {
	switch c.Name {
	case "attach":
		if c.Arg == "" {
			return nil, fmt.Errorf("usage: /attach <path>")
		}
		return eventbus.AttachFileEvent{Path: expandHome(c.Arg)}, nil
	case "detach":
		return eventbus.DetachFileEvent{}, nil
	case core.SettingVoice, core.SettingEmotion, core.SettingSpeed, core.SettingFormat:
		if c.Arg == "" {
			return nil, fmt.Errorf("usage: /%s <value>", c.Name)
		}
		return eventbus.SetSettingEvent{Key: c.Name, Value: c.Arg}, nil
	case "profile":
		return eventbus.NavigateEvent{Screen: models.ScreenProfile}, nil
	case "logout":
		return eventbus.LogoutEvent{}, nil
	default:
		return nil, fmt.Errorf("unknown command /%s", c.Name)
	}
}

var userHomeDir = os.UserHomeDir

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := userHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
