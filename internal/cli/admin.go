package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/debriefapp/debrief-cli/internal/domain"
	"github.com/debriefapp/debrief-cli/internal/guard"
)

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration screens (master accounts only)",
	Long: `Catalog and integration administration: clients, departments, demand
types, priorities, user accounts, the Trello mirror and WhatsApp templates.
These screens require a master account.`,
}

var adminClientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List client organisations",
	RunE: adminRunner("/admin/clients", func(app *App, cmd *cobra.Command) error {
		clients, err := app.API.ListClients(cmd.Context())
		if err != nil {
			return err
		}
		return RenderClients(clients, viper.GetString("output"))
	}),
}

var adminDepartmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "List departments",
	RunE: adminRunner("/admin/departments", func(app *App, cmd *cobra.Command) error {
		departments, err := app.API.ListDepartments(cmd.Context())
		if err != nil {
			return err
		}
		return RenderDepartments(departments, viper.GetString("output"))
	}),
}

var adminTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List demand types",
	RunE: adminRunner("/admin/demand-types", func(app *App, cmd *cobra.Command) error {
		types, err := app.API.ListDemandTypes(cmd.Context())
		if err != nil {
			return err
		}
		return RenderDemandTypes(types, viper.GetString("output"))
	}),
}

var adminPrioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "List priority levels",
	RunE: adminRunner("/admin/priorities", func(app *App, cmd *cobra.Command) error {
		priorities, err := app.API.ListPriorities(cmd.Context())
		if err != nil {
			return err
		}
		return RenderPriorities(priorities, viper.GetString("output"))
	}),
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user accounts",
	RunE: adminRunner("/admin/users", func(app *App, cmd *cobra.Command) error {
		users, err := app.API.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		return RenderUsers(users, viper.GetString("output"))
	}),
}

var adminTrelloCmd = &cobra.Command{
	Use:   "trello",
	Short: "Show the Trello mirror configuration",
	RunE: adminRunner("/admin/trello", func(app *App, cmd *cobra.Command) error {
		cfg, err := app.API.GetTrelloConfig(cmd.Context())
		if err != nil {
			return err
		}
		if format := viper.GetString("output"); format == formatYAML || format == formatYML {
			return renderYAML(cfg)
		}
		return renderJSON(cfg)
	}),
}

var adminTrelloLabelsCmd = &cobra.Command{
	Use:   "trello-labels",
	Short: "List Trello label mappings",
	RunE: adminRunner("/admin/trello", func(app *App, cmd *cobra.Command) error {
		labels, err := app.API.ListTrelloLabels(cmd.Context())
		if err != nil {
			return err
		}
		return RenderTrelloLabels(labels, viper.GetString("output"))
	}),
}

var adminTemplatesCmd = &cobra.Command{
	Use:   "whatsapp-templates",
	Short: "List WhatsApp notification templates",
	RunE: adminRunner("/admin/whatsapp", func(app *App, cmd *cobra.Command) error {
		templates, err := app.API.ListWhatsAppTemplates(cmd.Context())
		if err != nil {
			return err
		}
		return RenderWhatsAppTemplates(templates, viper.GetString("output"))
	}),
}

var notificationDemandID string

var adminNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List WhatsApp notification history",
	RunE: adminRunner("/admin/whatsapp", func(app *App, cmd *cobra.Command) error {
		entries, err := app.API.ListNotificationHistory(cmd.Context(), notificationDemandID)
		if err != nil {
			return err
		}
		return RenderNotificationHistory(entries, viper.GetString("output"))
	}),
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminClientsCmd)
	adminCmd.AddCommand(adminDepartmentsCmd)
	adminCmd.AddCommand(adminTypesCmd)
	adminCmd.AddCommand(adminPrioritiesCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminTrelloCmd)
	adminCmd.AddCommand(adminTrelloLabelsCmd)
	adminCmd.AddCommand(adminTemplatesCmd)
	adminCmd.AddCommand(adminNotificationsCmd)

	adminNotificationsCmd.Flags().StringVar(&notificationDemandID, "demand", "", "filter by demand ID")
}

// adminRunner gates a screen behind a master-account guard before running it.
func adminRunner(route string, run func(*App, *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		app, err := getApp()
		if err != nil {
			return err
		}

		g := guard.New(app.Session)
		g.RequiredAccountType = domain.MasterAccount
		if err := requireScreen(g, route); err != nil {
			return err
		}
		return run(app, cmd)
	}
}
