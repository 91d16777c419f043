package domain

import "time"

// The catalog records below are administered through thin CRUD screens and
// passed through to the backend unmodified.

// Client is a client organisation demands are raised for.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Department is an internal unit a demand can be routed to.
type Department struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DemandType categorises demands.
type DemandType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// Priority is a configurable priority level.
type Priority struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Color string `json:"color,omitempty"`
}

// TrelloLabelMapping binds a client to a Trello label so mirrored cards are
// tagged consistently.
type TrelloLabelMapping struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	LabelID   string `json:"label_id"`
	LabelName string `json:"label_name"`
	Color     string `json:"color,omitempty"`
}

// TrelloConfig holds the board/list wiring for the Trello mirror.
type TrelloConfig struct {
	BoardID        string            `json:"board_id"`
	BoardName      string            `json:"board_name,omitempty"`
	ListsByStatus  map[string]string `json:"lists_by_status,omitempty"`
	WebhookEnabled bool              `json:"webhook_enabled"`
}

// WhatsAppTemplate is a message template used for lifecycle notifications.
type WhatsAppTemplate struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Body    string `json:"body"`
	Active  bool   `json:"active"`
	Updated string `json:"updated_at,omitempty"`
}

// NotificationLogEntry records a WhatsApp notification attempt.
type NotificationLogEntry struct {
	ID       string    `json:"id"`
	DemandID string    `json:"demand_id"`
	Phone    string    `json:"phone"`
	Event    string    `json:"event"`
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}
