package ws

import (
	"context"
	"errors"
	"log"

	"golang.org/x/time/rate"

	"chat-sidebar/internal/chatstore"
	"chat-sidebar/internal/models"
	"chat-sidebar/internal/observability"
	"chat-sidebar/internal/sidebar"
	"chat-sidebar/internal/toolbar"
)

// Gesture actions sent by the client.
const (
	ActionSetFilter     = "set_filter"
	ActionSelectChat    = "select_chat"
	ActionNewChat       = "new_chat"
	ActionOpenDual      = "open_dual"
	ActionTogglePin     = "toggle_pin"
	ActionToggleArchive = "toggle_archive"
	ActionDeleteChat    = "delete_chat"
	ActionToggleSidebar = "toggle_sidebar"
	ActionOpenSettings  = "open_settings"
	ActionSetActiveChat = "set_active_chat"
	ActionToggleTool    = "toggle_tool"
	ActionSelectModel   = "select_model"
)

// Frame types sent to the client.
const (
	FrameSnapshot     = "snapshot"
	FrameNavigate     = "navigate"
	FrameNotice       = "notice"
	FrameOpenSettings = "open_settings"
	FrameChatEvent    = "chat_event"
)

const (
	eventBuffer   = 16
	rateLimited   = "rate_limited"
	unknownAction = "unknown"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownChat   = errors.New("chat not found")
	ErrNoActiveChat  = errors.New("no chat open")
)

var knownActions = map[string]bool{
	ActionSetFilter:     true,
	ActionSelectChat:    true,
	ActionNewChat:       true,
	ActionOpenDual:      true,
	ActionTogglePin:     true,
	ActionToggleArchive: true,
	ActionDeleteChat:    true,
	ActionToggleSidebar: true,
	ActionOpenSettings:  true,
	ActionSetActiveChat: true,
	ActionToggleTool:    true,
	ActionSelectModel:   true,
}

// actionLabel bounds the metric label to the known actions.
func actionLabel(action string) string {
	if knownActions[action] {
		return action
	}
	return unknownAction
}

// Conn is the part of a websocket connection a Session uses.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Gesture is one user interaction with the sidebar or the toolbar.
type Gesture struct {
	Action  string `json:"action"`
	ChatID  string `json:"chat_id,omitempty"`
	Filter  string `json:"filter,omitempty"`
	ToolID  string `json:"tool_id,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// Frame is one server message.
type Frame struct {
	Type          string             `json:"type"`
	Sidebar       *sidebar.Snapshot  `json:"sidebar,omitempty"`
	Tools         []models.ToolState `json:"tools,omitempty"`
	Models        []models.AIModel   `json:"models,omitempty"`
	SelectedModel string             `json:"selected_model,omitempty"`
	ModelLabel    string             `json:"model_label,omitempty"`
	Path          string             `json:"path,omitempty"`
	Level         string             `json:"level,omitempty"`
	Message       string             `json:"message,omitempty"`
	Event         *models.ChatEvent  `json:"event,omitempty"`
}

// SessionConfig holds the per-connection settings of a Session.
type SessionConfig struct {
	Open         bool
	ActiveChatID string
	Catalog      toolbar.Catalog
	GestureRate  rate.Limit
	GestureBurst int
}

type deleteResult struct {
	chatID string
	err    error
}

// Session drives one sidebar over one websocket connection. All view state
// is owned by the goroutine running Run.
type Session struct {
	conn       Conn
	info       ConnInfo
	store      *chatstore.Store
	visibility *sidebar.VisibilityStore
	view       *sidebar.View
	tools      *toolbar.Bar
	model      *toolbar.ModelSelector
	limiter    *rate.Limiter

	gestures  chan Gesture
	readErr   chan error
	changes   chan struct{}
	events    chan models.ChatEvent
	deletions chan deleteResult
	done      chan struct{}

	unsubscribeStore func()
	writeErr         error
}

// NewSession wires a Session around conn and store. The session owns store
// and closes it when Run returns.
func NewSession(conn Conn, info ConnInfo, store *chatstore.Store, cfg SessionConfig) *Session {
	limit := cfg.GestureRate
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.GestureBurst
	if burst <= 0 {
		burst = 1
	}

	s := &Session{
		conn:       conn,
		info:       info,
		store:      store,
		visibility: sidebar.NewVisibilityStore(cfg.Open),
		tools:      toolbar.NewBar(cfg.Catalog.Tools),
		model:      toolbar.NewModelSelector(cfg.Catalog.Models, cfg.Catalog.DefaultModel),
		limiter:    rate.NewLimiter(limit, burst),
		gestures:   make(chan Gesture),
		readErr:    make(chan error, 1),
		changes:    make(chan struct{}, 1),
		events:     make(chan models.ChatEvent, eventBuffer),
		deletions:  make(chan deleteResult, eventBuffer),
		done:       make(chan struct{}),
	}

	s.unsubscribeStore = store.OnChange(s.changed)
	s.view = sidebar.NewView(store, s.visibility, sidebar.NavigatorFunc(s.navigate),
		sidebar.WithActiveChat(cfg.ActiveChatID),
		sidebar.WithSettingsHandler(s.openSettings),
	)
	return s
}

// Deliver hands a persisted chat change to the session. When the session
// is too far behind the event is dropped and the collection reloaded.
func (s *Session) Deliver(event models.ChatEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
		log.Printf("sidebar session behind, reloading conn_id=%s user_id=%d", s.info.ConnID, s.info.UserID)
		s.store.LoadChats()
	}
}

// Run serves the connection until the client goes away, a write fails or ctx
// ends. It releases the session's resources before returning.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()
	go s.readLoop()

	s.sendSnapshot()
	for s.writeErr == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.readErr:
			return err
		case gesture := <-s.gestures:
			s.dispatch(gesture)
		case <-s.changes:
			s.sendSnapshot()
		case event := <-s.events:
			s.store.Apply(event)
			s.send(Frame{Type: FrameChatEvent, Event: &event})
		case result := <-s.deletions:
			if result.err != nil {
				s.notice("error", "Could not delete chat: "+result.err.Error())
			} else {
				s.notice("info", "Chat deleted")
			}
		}
	}
	return s.writeErr
}

func (s *Session) readLoop() {
	for {
		var gesture Gesture
		if err := s.conn.ReadJSON(&gesture); err != nil {
			s.readErr <- err
			return
		}
		select {
		case s.gestures <- gesture:
		case <-s.done:
			return
		}
	}
}

func (s *Session) close() {
	close(s.done)
	s.view.Close()
	s.unsubscribeStore()
	s.store.Close()
	_ = s.conn.Close()
}

func (s *Session) dispatch(gesture Gesture) {
	if !s.limiter.Allow() {
		observability.IncGesture(actionLabel(gesture.Action), rateLimited)
		s.notice("warning", "Too many actions, slow down")
		return
	}

	err := s.handle(gesture)
	observability.IncGesture(actionLabel(gesture.Action), observability.Result(err))
	if err != nil {
		s.notice("error", err.Error())
	}
}

func (s *Session) handle(gesture Gesture) error {
	switch gesture.Action {
	case ActionSetFilter:
		mode, err := models.ParseFilterMode(gesture.Filter)
		if err != nil {
			return err
		}
		s.view.SetFilter(mode)
		s.sendSnapshot()
	case ActionSelectChat:
		chat, err := s.lookup(gesture.ChatID)
		if err != nil {
			return err
		}
		s.view.SelectChat(chat)
	case ActionNewChat:
		s.view.NewChat()
	case ActionOpenDual:
		primaryID := s.view.ActiveChatID()
		if primaryID == "" {
			return ErrNoActiveChat
		}
		chat, err := s.lookup(gesture.ChatID)
		if err != nil {
			return err
		}
		return s.view.OpenDualView(primaryID, chat)
	case ActionTogglePin:
		chat, err := s.lookup(gesture.ChatID)
		if err != nil {
			return err
		}
		s.view.TogglePin(chat)
	case ActionToggleArchive:
		chat, err := s.lookup(gesture.ChatID)
		if err != nil {
			return err
		}
		s.view.ToggleArchive(chat)
	case ActionDeleteChat:
		if _, err := s.lookup(gesture.ChatID); err != nil {
			return err
		}
		chatID := gesture.ChatID
		return s.view.DeleteChat(chatID, func(err error) {
			select {
			case s.deletions <- deleteResult{chatID: chatID, err: err}:
			case <-s.done:
			}
		})
	case ActionToggleSidebar:
		s.view.ToggleSidebar()
		s.sendSnapshot()
	case ActionOpenSettings:
		s.view.OpenSettings()
	case ActionSetActiveChat:
		s.view.SetActiveChat(gesture.ChatID)
		s.sendSnapshot()
	case ActionToggleTool:
		if _, err := s.tools.Toggle(gesture.ToolID); err != nil {
			return err
		}
		s.sendSnapshot()
	case ActionSelectModel:
		if err := s.model.Select(gesture.ModelID); err != nil {
			return err
		}
		s.sendSnapshot()
	default:
		return ErrUnknownAction
	}
	return nil
}

func (s *Session) lookup(chatID string) (models.ChatRecord, error) {
	chat, ok := s.view.Find(chatID)
	if !ok {
		return models.ChatRecord{}, ErrUnknownChat
	}
	return chat, nil
}

// changed runs on store goroutines. Signals coalesce in the one-slot buffer.
func (s *Session) changed() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) navigate(path string) {
	s.send(Frame{Type: FrameNavigate, Path: path})
}

func (s *Session) openSettings() {
	s.send(Frame{Type: FrameOpenSettings})
}

func (s *Session) notice(level, message string) {
	s.send(Frame{Type: FrameNotice, Level: level, Message: message})
}

func (s *Session) sendSnapshot() {
	snap := s.view.Snapshot()
	frame := Frame{
		Type:       FrameSnapshot,
		Sidebar:    &snap,
		Tools:      s.tools.States(),
		Models:     s.model.Models(),
		ModelLabel: s.model.Label(),
	}
	if selected, ok := s.model.Selected(); ok {
		frame.SelectedModel = selected.ID
	}
	s.send(frame)
}

func (s *Session) send(frame Frame) {
	if s.writeErr != nil {
		return
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		s.writeErr = err
	}
}
