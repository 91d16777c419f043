package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/debriefapp/debrief-cli/internal/domain"
	"github.com/debriefapp/debrief-cli/internal/gateway"
)

// APIClient exposes the Domain Backend surface as typed methods. Every call
// goes through the gateway; nothing here touches credentials or storage.
type APIClient struct {
	gw *gateway.Client
}

// NewAPIClient creates an API client over the gateway.
func NewAPIClient(gw *gateway.Client) *APIClient {
	return &APIClient{gw: gw}
}

// --- Demands ---

// ListDemands returns demands matching the filter.
func (c *APIClient) ListDemands(ctx context.Context, filter domain.DemandFilter) ([]domain.Demand, error) {
	query := url.Values{}
	for _, status := range filter.Status {
		query.Add("status", string(status))
	}
	if filter.ClientID != "" {
		query.Set("client_id", filter.ClientID)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(filter.PerPage))
	}

	var demands []domain.Demand
	if err := c.gw.GetJSON(ctx, "/demands", query, &demands); err != nil {
		return nil, err
	}
	return demands, nil
}

// GetDemand returns one demand by ID.
func (c *APIClient) GetDemand(ctx context.Context, id string) (*domain.Demand, error) {
	var demand domain.Demand
	if err := c.gw.GetJSON(ctx, "/demands/"+id, nil, &demand); err != nil {
		return nil, err
	}
	return &demand, nil
}

// CreateDemand submits a new demand.
func (c *APIClient) CreateDemand(ctx context.Context, req domain.CreateDemandRequest) (*domain.Demand, error) {
	var demand domain.Demand
	if err := c.gw.PostJSON(ctx, "/demands", req, &demand); err != nil {
		return nil, err
	}
	return &demand, nil
}

// UpdateDemand applies a partial update to a demand.
func (c *APIClient) UpdateDemand(ctx context.Context, id string, req domain.UpdateDemandRequest) (*domain.Demand, error) {
	var demand domain.Demand
	if err := c.gw.PutJSON(ctx, "/demands/"+id, req, &demand); err != nil {
		return nil, err
	}
	return &demand, nil
}

// ChangeDemandStatus moves a demand through its lifecycle. The backend
// mirrors the transition to Trello and sends WhatsApp notifications.
func (c *APIClient) ChangeDemandStatus(ctx context.Context, id string, status domain.DemandStatus) (*domain.Demand, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown demand status %q", status), nil)
	}
	var demand domain.Demand
	body := map[string]string{"status": string(status)}
	if err := c.gw.PatchJSON(ctx, "/demands/"+id+"/status", body, &demand); err != nil {
		return nil, err
	}
	return &demand, nil
}

// UploadAttachment attaches a local file to a demand.
func (c *APIClient) UploadAttachment(ctx context.Context, demandID, path string) (*domain.Attachment, error) {
	file, err := os.Open(path) //nolint:gosec // User-supplied path by design
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer func() { _ = file.Close() }()

	var attachment domain.Attachment
	endpoint := "/demands/" + demandID + "/attachments"
	if err := c.gw.UploadFile(ctx, endpoint, "file", filepath.Base(path), file, nil, &attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// --- Catalogs ---

// ListClients returns all client organisations.
func (c *APIClient) ListClients(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	if err := c.gw.GetJSON(ctx, "/clients", nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ListDepartments returns all departments.
func (c *APIClient) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	var departments []domain.Department
	if err := c.gw.GetJSON(ctx, "/departments", nil, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// ListDemandTypes returns all demand types.
func (c *APIClient) ListDemandTypes(ctx context.Context) ([]domain.DemandType, error) {
	var types []domain.DemandType
	if err := c.gw.GetJSON(ctx, "/demand-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// ListPriorities returns all priority levels.
func (c *APIClient) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	var priorities []domain.Priority
	if err := c.gw.GetJSON(ctx, "/priorities", nil, &priorities); err != nil {
		return nil, err
	}
	return priorities, nil
}

// ListUsers returns all user accounts (master screens only).
func (c *APIClient) ListUsers(ctx context.Context) ([]domain.UserProfile, error) {
	var users []domain.UserProfile
	if err := c.gw.GetJSON(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// --- Integrations ---

// GetTrelloConfig returns the Trello mirror wiring.
func (c *APIClient) GetTrelloConfig(ctx context.Context) (*domain.TrelloConfig, error) {
	var cfg domain.TrelloConfig
	if err := c.gw.GetJSON(ctx, "/trello/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListTrelloLabels returns the client-to-label mappings.
func (c *APIClient) ListTrelloLabels(ctx context.Context) ([]domain.TrelloLabelMapping, error) {
	var labels []domain.TrelloLabelMapping
	if err := c.gw.GetJSON(ctx, "/trello/labels", nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// ListWhatsAppTemplates returns the notification templates.
func (c *APIClient) ListWhatsAppTemplates(ctx context.Context) ([]domain.WhatsAppTemplate, error) {
	var templates []domain.WhatsAppTemplate
	if err := c.gw.GetJSON(ctx, "/whatsapp/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// ListNotificationHistory returns past WhatsApp notification attempts.
func (c *APIClient) ListNotificationHistory(ctx context.Context, demandID string) ([]domain.NotificationLogEntry, error) {
	query := url.Values{}
	if demandID != "" {
		query.Set("demand_id", demandID)
	}
	var entries []domain.NotificationLogEntry
	if err := c.gw.GetJSON(ctx, "/whatsapp/notifications", query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// --- Profile ---

// UpdateProfile updates the authenticated user's own profile and returns the
// new record.
func (c *APIClient) UpdateProfile(ctx context.Context, update domain.UserUpdate) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if err := c.gw.PutJSON(ctx, "/auth/me", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword changes the authenticated user's password.
func (c *APIClient) ChangePassword(ctx context.Context, current, newPassword string) error {
	body := map[string]string{
		"current_password": current,
		"new_password":     newPassword,
	}
	return c.gw.PostJSON(ctx, "/auth/change-password", body, nil)
}

// --- Reports ---

// DownloadReport streams a demand report (pdf or xlsx) into dest.
func (c *APIClient) DownloadReport(ctx context.Context, format string, filter domain.DemandFilter, dest io.Writer) error {
	if format != "pdf" && format != "xlsx" {
		return domain.NewValidationError("INVALID_FORMAT", "Report format must be pdf or xlsx", nil)
	}

	query := url.Values{}
	query.Set("format", format)
	for _, status := range filter.Status {
		query.Add("status", string(status))
	}
	if filter.ClientID != "" {
		query.Set("client_id", filter.ClientID)
	}

	return c.gw.Download(ctx, "/reports/demands?"+query.Encode(), dest)
}
