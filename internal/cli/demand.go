package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/debriefapp/debrief-cli/internal/domain"
	"github.com/debriefapp/debrief-cli/internal/guard"
)

// demandCmd represents the demand command
var demandCmd = &cobra.Command{
	Use:     "demand",
	Aliases: []string{"demands"},
	Short:   "Submit and track demands",
	Long: `Work with demands: list the board, inspect a single demand, submit new
ones and move them through their lifecycle.`,
}

var demandListCmd = &cobra.Command{
	Use:   "list",
	Short: "List demands",
	RunE:  runDemandList,
}

var demandShowCmd = &cobra.Command{
	Use:   "show <demand-id>",
	Short: "Show one demand",
	Args:  cobra.ExactArgs(1),
	RunE:  runDemandShow,
}

var demandCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Submit a new demand",
	Args:  cobra.ExactArgs(1),
	RunE:  runDemandCreate,
}

var demandStartCmd = &cobra.Command{
	Use:   "start <demand-id>",
	Short: "Move a demand into progress",
	Args:  cobra.ExactArgs(1),
	RunE:  makeStatusRunner(domain.DemandInProgress),
}

var demandAwaitCmd = &cobra.Command{
	Use:   "await-client <demand-id>",
	Short: "Mark a demand as waiting on the client",
	Args:  cobra.ExactArgs(1),
	RunE:  makeStatusRunner(domain.DemandAwaitingClient),
}

var demandConcludeCmd = &cobra.Command{
	Use:   "conclude <demand-id>",
	Short: "Conclude a demand",
	Args:  cobra.ExactArgs(1),
	RunE:  makeStatusRunner(domain.DemandConcluded),
}

var demandCancelCmd = &cobra.Command{
	Use:   "cancel <demand-id>",
	Short: "Cancel a demand",
	Args:  cobra.ExactArgs(1),
	RunE:  makeStatusRunner(domain.DemandCancelled),
}

var demandAttachCmd = &cobra.Command{
	Use:   "attach <demand-id> <file>",
	Short: "Attach a local file to a demand",
	Args:  cobra.ExactArgs(2),
	RunE:  runDemandAttach,
}

var (
	demandStatusFilter []string
	demandClientFilter string
	demandSearchFilter string
	demandPage         int

	createDescription string
	createTypeID      string
	createPriorityID  string
	createDeadline    string
	createLinks       []string
)

func init() {
	rootCmd.AddCommand(demandCmd)
	demandCmd.AddCommand(demandListCmd)
	demandCmd.AddCommand(demandShowCmd)
	demandCmd.AddCommand(demandCreateCmd)
	demandCmd.AddCommand(demandStartCmd)
	demandCmd.AddCommand(demandAwaitCmd)
	demandCmd.AddCommand(demandConcludeCmd)
	demandCmd.AddCommand(demandCancelCmd)
	demandCmd.AddCommand(demandAttachCmd)

	demandListCmd.Flags().StringSliceVar(&demandStatusFilter, "status", nil, "filter by status (repeatable)")
	demandListCmd.Flags().StringVar(&demandClientFilter, "client", "", "filter by client ID")
	demandListCmd.Flags().StringVar(&demandSearchFilter, "search", "", "search in name and description")
	demandListCmd.Flags().IntVar(&demandPage, "page", 0, "page number")

	demandCreateCmd.Flags().StringVarP(&createDescription, "description", "d", "", "demand description")
	demandCreateCmd.Flags().StringVar(&createTypeID, "type", "", "demand type ID")
	demandCreateCmd.Flags().StringVar(&createPriorityID, "priority", "", "priority ID")
	demandCreateCmd.Flags().StringVar(&createDeadline, "deadline", "", "deadline (YYYY-MM-DD)")
	demandCreateCmd.Flags().StringSliceVar(&createLinks, "link", nil, "reference link (repeatable)")
}

func demandScreen(app *App) error {
	return requireScreen(guard.New(app.Session), "/demands")
}

func runDemandList(cmd *cobra.Command, _ []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if err := demandScreen(app); err != nil {
		return err
	}

	filter := domain.DemandFilter{
		ClientID: demandClientFilter,
		Search:   demandSearchFilter,
		Page:     demandPage,
	}
	for _, s := range demandStatusFilter {
		status := domain.DemandStatus(s)
		if !status.IsValid() {
			return fmt.Errorf("unknown status %q", s)
		}
		filter.Status = append(filter.Status, status)
	}

	demands, err := app.API.ListDemands(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return RenderDemands(demands, viper.GetString("output"))
}

func runDemandShow(cmd *cobra.Command, args []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if err := demandScreen(app); err != nil {
		return err
	}

	demand, err := app.API.GetDemand(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return RenderDemandDetails(demand, viper.GetString("output"))
}

func runDemandCreate(cmd *cobra.Command, args []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if err := demandScreen(app); err != nil {
		return err
	}

	req := domain.CreateDemandRequest{
		Name:           args[0],
		Description:    createDescription,
		TypeID:         createTypeID,
		Priority:       createPriorityID,
		ReferenceLinks: createLinks,
	}
	if createDeadline != "" {
		if _, parseErr := time.Parse("2006-01-02", createDeadline); parseErr != nil {
			return fmt.Errorf("invalid deadline %q: expected YYYY-MM-DD", createDeadline)
		}
		req.Deadline = createDeadline
	}

	demand, err := app.API.CreateDemand(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Demand created: %s (%s)\n", demand.Name, demand.ID)
	return nil
}

// makeStatusRunner builds a RunE that moves a demand to the given status.
func makeStatusRunner(status domain.DemandStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := getApp()
		if err != nil {
			return err
		}
		if err := demandScreen(app); err != nil {
			return err
		}

		demand, err := app.API.ChangeDemandStatus(cmd.Context(), args[0], status)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Demand '%s' is now %s\n", demand.Name, demand.Status)
		return nil
	}
}

func runDemandAttach(cmd *cobra.Command, args []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if err := demandScreen(app); err != nil {
		return err
	}

	if _, statErr := os.Stat(args[1]); statErr != nil {
		return fmt.Errorf("cannot read %s: %w", args[1], statErr)
	}

	attachment, err := app.API.UploadAttachment(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("✓ Uploaded %s (%d bytes)\n", attachment.FileName, attachment.Size)
	return nil
}
