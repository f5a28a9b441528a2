package models

type Sender int

const (
	User Sender = iota
	Bot
)

func (s Sender) String() string {
	if s == Bot {
		return "bot"
	}
	return "user"
}

// ParseSender maps the backend's sender tag; anything but "bot" is the user.
func ParseSender(tag string) Sender {
	if tag == "bot" {
		return Bot
	}
	return User
}

// MessageState tags a log entry as a settled message or the loading placeholder
// standing in for an outstanding bot reply.
type MessageState int

const (
	Resolved MessageState = iota
	Pending
)

type Message struct {
	Text   string
	Sender Sender
	State  MessageState
	IsFile bool // Text holds the uploaded file name
}

func NewUserMessage(text string) Message {
	return Message{Text: text, Sender: User, State: Resolved}
}

func NewFileMessage(name string) Message {
	return Message{Text: name, Sender: User, State: Resolved, IsFile: true}
}

func NewBotMessage(text string) Message {
	return Message{Text: text, Sender: Bot, State: Resolved}
}

// NewPlaceholder returns the loading entry for a pending bot reply. It carries no text.
func NewPlaceholder() Message {
	return Message{Sender: Bot, State: Pending}
}

func (m Message) IsLoading() bool {
	return m.State == Pending
}
