package app

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/config"
	"github.com/Rorical/RoriTalk/internal/core"
	"github.com/Rorical/RoriTalk/internal/dispatcher"
	"github.com/Rorical/RoriTalk/internal/eventbus"
	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/internal/update"
)

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ClientService
	model      *AppModel
	logFile    io.Closer
}

type AppModel struct {
	state       *update.State
	dispatcher  *dispatcher.EventDispatcher
	profileName string
}

// Session is a backend client for the active profile, with its stored cookies.
type Session struct {
	Config *config.Config
	Client *api.Client
	Jar    *api.SessionJar
}

// OpenSession loads the config and the cookie jar of the active profile.
func OpenSession() (*Session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IsValid() {
		return nil, fmt.Errorf("profile '%s' has an invalid base URL %q", cfg.ActiveProfile, cfg.GetBaseURL())
	}

	sessionPath, err := cfg.SessionPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate session file: %w", err)
	}
	jar, err := api.NewSessionJar(sessionPath)
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.GetBaseURL(), jar)
	if err != nil {
		return nil, err
	}
	return &Session{Config: cfg, Client: client, Jar: jar}, nil
}

func NewApplication() (*Application, error) {
	session, err := OpenSession()
	if err != nil {
		return nil, err
	}

	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)

	service, err := core.NewClientService(session.Client, session.Jar.Clear, eb)
	if err != nil {
		log.Printf("Failed to initialize client service: %v", err)
		return nil, err
	}

	state := update.NewState()
	if username := session.Config.GetUsername(); username != "" {
		state.Prefill(models.FieldUsername, username)
		service.Controllers().Auth.SetField(models.FieldUsername, username)
	}

	return &Application{
		config:     session.Config,
		eventBus:   eb,
		dispatcher: disp,
		service:    service,
		model: &AppModel{
			state:       state,
			dispatcher:  disp,
			profileName: session.Config.ActiveProfile,
		},
	}, nil
}

// redirectLog keeps log output off the terminal while the TUI owns it.
func (app *Application) redirectLog() {
	path := os.Getenv(config.EnvDebug)
	if path == "" {
		log.SetOutput(io.Discard)
		return
	}
	f, err := tea.LogToFile(path, "roritalk")
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	app.logFile = f
}

func (app *Application) Start() error {
	app.redirectLog()

	// Start background services
	app.dispatcher.Start()
	app.service.Start()

	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.eventBus.Close()
	if app.logFile != nil {
		app.logFile.Close()
	}
	log.SetOutput(os.Stderr)
}
