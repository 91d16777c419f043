package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/debriefapp/debrief-cli/internal/domain"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatYML  = "yml"
)

func renderJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func renderYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderDemands renders a list of demands in the specified format.
func RenderDemands(demands []domain.Demand, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(demands)
	case formatYAML, formatYML:
		return renderYAML(demands)
	default:
		t := newTable(table.Row{"ID", "Name", "Status", "Priority", "Client", "Deadline", "Updated"})
		for _, d := range demands {
			deadline := ""
			if d.Deadline != nil {
				deadline = d.Deadline.Format("2006-01-02")
			}
			t.AppendRow(table.Row{
				shortID(d.ID), d.Name, string(d.Status), d.Priority,
				d.ClientID, deadline, d.UpdatedAt.Format("2006-01-02 15:04"),
			})
		}
		t.Render()
		return nil
	}
}

// RenderDemandDetails renders one demand with its attachments and links.
func RenderDemandDetails(demand *domain.Demand, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(demand)
	case formatYAML, formatYML:
		return renderYAML(demand)
	default:
		fmt.Printf("Demand:      %s\n", demand.Name)
		fmt.Printf("ID:          %s\n", demand.ID)
		fmt.Printf("Status:      %s\n", demand.Status)
		if demand.Priority != "" {
			fmt.Printf("Priority:    %s\n", demand.Priority)
		}
		if demand.Deadline != nil {
			fmt.Printf("Deadline:    %s\n", demand.Deadline.Format("2006-01-02"))
		}
		if demand.TrelloCardID != "" {
			fmt.Printf("Trello card: %s\n", demand.TrelloCardID)
		}
		fmt.Printf("Created:     %s\n", demand.CreatedAt.Format(time.RFC822))
		fmt.Printf("\n%s\n", demand.Description)
		if len(demand.ReferenceLinks) > 0 {
			fmt.Println("\nReference links:")
			for _, link := range demand.ReferenceLinks {
				fmt.Printf("  - %s\n", link)
			}
		}
		if len(demand.Attachments) > 0 {
			fmt.Println("\nAttachments:")
			for _, a := range demand.Attachments {
				fmt.Printf("  - %s (%d bytes)\n", a.FileName, a.Size)
			}
		}
		return nil
	}
}

// RenderClients renders client organisations.
func RenderClients(clients []domain.Client, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(clients)
	case formatYAML, formatYML:
		return renderYAML(clients)
	default:
		t := newTable(table.Row{"ID", "Name", "Email", "Phone", "Active"})
		for _, c := range clients {
			t.AppendRow(table.Row{shortID(c.ID), c.Name, c.Email, c.Phone, c.Active})
		}
		t.Render()
		return nil
	}
}

// RenderPriorities renders priority levels.
func RenderPriorities(priorities []domain.Priority, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(priorities)
	case formatYAML, formatYML:
		return renderYAML(priorities)
	default:
		t := newTable(table.Row{"ID", "Name", "Level"})
		for _, p := range priorities {
			t.AppendRow(table.Row{shortID(p.ID), p.Name, p.Level})
		}
		t.Render()
		return nil
	}
}

// RenderDepartments renders departments.
func RenderDepartments(departments []domain.Department, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(departments)
	case formatYAML, formatYML:
		return renderYAML(departments)
	default:
		t := newTable(table.Row{"ID", "Name", "Active"})
		for _, d := range departments {
			t.AppendRow(table.Row{shortID(d.ID), d.Name, d.Active})
		}
		t.Render()
		return nil
	}
}

// RenderDemandTypes renders demand types.
func RenderDemandTypes(types []domain.DemandType, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(types)
	case formatYAML, formatYML:
		return renderYAML(types)
	default:
		t := newTable(table.Row{"ID", "Name", "Description", "Active"})
		for _, d := range types {
			t.AppendRow(table.Row{shortID(d.ID), d.Name, d.Description, d.Active})
		}
		t.Render()
		return nil
	}
}

// RenderUsers renders user accounts.
func RenderUsers(users []domain.UserProfile, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(users)
	case formatYAML, formatYML:
		return renderYAML(users)
	default:
		t := newTable(table.Row{"ID", "Username", "Full name", "Type", "Client", "Active"})
		for _, u := range users {
			t.AppendRow(table.Row{shortID(u.ID), u.Username, u.FullName, string(u.AccountType), u.ClientID, u.Active})
		}
		t.Render()
		return nil
	}
}

// RenderTrelloLabels renders Trello label mappings.
func RenderTrelloLabels(labels []domain.TrelloLabelMapping, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(labels)
	case formatYAML, formatYML:
		return renderYAML(labels)
	default:
		t := newTable(table.Row{"Client", "Label", "Color"})
		for _, l := range labels {
			t.AppendRow(table.Row{l.ClientID, l.LabelName, l.Color})
		}
		t.Render()
		return nil
	}
}

// RenderWhatsAppTemplates renders notification templates.
func RenderWhatsAppTemplates(templates []domain.WhatsAppTemplate, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(templates)
	case formatYAML, formatYML:
		return renderYAML(templates)
	default:
		t := newTable(table.Row{"ID", "Event", "Active", "Body"})
		for _, tpl := range templates {
			t.AppendRow(table.Row{shortID(tpl.ID), tpl.Event, tpl.Active, truncate(tpl.Body, 60)})
		}
		t.Render()
		return nil
	}
}

// RenderNotificationHistory renders notification attempts.
func RenderNotificationHistory(entries []domain.NotificationLogEntry, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(entries)
	case formatYAML, formatYML:
		return renderYAML(entries)
	default:
		t := newTable(table.Row{"Demand", "Event", "Phone", "Success", "Sent"})
		for _, e := range entries {
			t.AppendRow(table.Row{shortID(e.DemandID), e.Event, e.Phone, e.Success, e.SentAt.Format("2006-01-02 15:04")})
		}
		t.Render()
		return nil
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
