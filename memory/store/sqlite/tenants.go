package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tap-top/recall/memory"
)

// App is a registered application tenant.
type App struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (App) TableName() string { return "apps" }

// Agent is an agent identity within an app.
type Agent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AppID     string    `gorm:"index;size:36" json:"app_id"`
	Name      string    `gorm:"size:128" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Agent) TableName() string { return "agents" }

// Session groups related ingestion calls, typically one conversation.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AppID     string    `gorm:"index;size:36" json:"app_id"`
	AgentID   string    `gorm:"index;size:36" json:"agent_id"`
	UserID    string    `gorm:"index;size:64" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

// CreateApp registers an app, assigning an ID when none is given.
func (s *Store) CreateApp(ctx context.Context, app *App) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("creating app: %w", err)
	}
	return nil
}

// GetApp returns the app for id.
func (s *Store) GetApp(ctx context.Context, id string) (*App, error) {
	var app App
	err := s.db.WithContext(ctx).First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading app: %w", err)
	}
	return &app, nil
}

// CreateAgent registers an agent, assigning an ID when none is given.
func (s *Store) CreateAgent(ctx context.Context, agent *Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(agent).Error; err != nil {
		return fmt.Errorf("creating agent: %w", err)
	}
	return nil
}

// GetAgent returns the agent for id.
func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	err := s.db.WithContext(ctx).First(&agent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading agent: %w", err)
	}
	return &agent, nil
}

// CreateSession opens a session, assigning an ID when none is given.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession returns the session for id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return &sess, nil
}
