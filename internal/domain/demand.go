package domain

import "time"

// DemandStatus represents the lifecycle state of a demand.
type DemandStatus string

const (
	// DemandOpen is the initial state of a newly submitted demand.
	DemandOpen DemandStatus = "open"
	// DemandInProgress marks a demand being worked on.
	DemandInProgress DemandStatus = "in_progress"
	// DemandAwaitingClient marks a demand blocked on client input.
	DemandAwaitingClient DemandStatus = "awaiting_client"
	// DemandConcluded is a terminal state.
	DemandConcluded DemandStatus = "concluded"
	// DemandCancelled is a terminal state.
	DemandCancelled DemandStatus = "cancelled"
)

// IsValid reports whether the status is part of the lifecycle vocabulary.
func (s DemandStatus) IsValid() bool {
	switch s {
	case DemandOpen, DemandInProgress, DemandAwaitingClient, DemandConcluded, DemandCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the lifecycle.
func (s DemandStatus) IsTerminal() bool {
	return s == DemandConcluded || s == DemandCancelled
}

// Attachment is a file attached to a demand. Uploaded content lives on the
// backend; the client only carries metadata.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
}

// Demand is a work request. The record is an opaque backend payload from the
// client's point of view; only the status vocabulary carries meaning here.
type Demand struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Status         DemandStatus `json:"status"`
	Priority       string       `json:"priority,omitempty"`
	TypeID         string       `json:"type_id,omitempty"`
	ClientID       string       `json:"client_id,omitempty"`
	DepartmentID   string       `json:"department_id,omitempty"`
	ReferenceLinks []string     `json:"reference_links,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Deadline       *time.Time   `json:"deadline,omitempty"`
	ConcludedAt    *time.Time   `json:"concluded_at,omitempty"`
	TrelloCardID   string       `json:"trello_card_id,omitempty"`
	CreatedBy      string       `json:"created_by,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CreateDemandRequest is the payload for submitting a new demand.
type CreateDemandRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Priority       string   `json:"priority,omitempty"`
	TypeID         string   `json:"type_id,omitempty"`
	ClientID       string   `json:"client_id,omitempty"`
	DepartmentID   string   `json:"department_id,omitempty"`
	ReferenceLinks []string `json:"reference_links,omitempty"`
	Deadline       string   `json:"deadline,omitempty"`
}

// UpdateDemandRequest is a partial demand update. Nil fields are left as-is.
type UpdateDemandRequest struct {
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Priority       *string   `json:"priority,omitempty"`
	DepartmentID   *string   `json:"department_id,omitempty"`
	ReferenceLinks *[]string `json:"reference_links,omitempty"`
	Deadline       *string   `json:"deadline,omitempty"`
}

// DemandFilter narrows demand listings.
type DemandFilter struct {
	Status   []DemandStatus
	ClientID string
	Search   string
	Page     int
	PerPage  int
}
