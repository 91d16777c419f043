package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/debriefapp/debrief-cli/internal/domain"
	"github.com/debriefapp/debrief-cli/internal/gateway"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Sign in to DeBrief, inspect the current session, and manage your profile.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the DeBrief backend",
	Long: `Authenticate with username and password. If your account has two-factor
authentication enabled you will be prompted for the one-time code.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear stored credentials",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE:  runStatus,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage server profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	RunE:  runProfileList,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <server-url>",
	Short: "Add a server profile",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileAdd,
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a server profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileRemove,
}

var (
	loginUsername string
	loginCaptcha  string
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (prompted if omitted)")
	loginCmd.Flags().StringVar(&loginCaptcha, "captcha-token", "", "captcha verification token")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}

	app.Navigator.SetAtLogin(true)
	defer app.Navigator.SetAtLogin(false)

	username := loginUsername
	if username == "" {
		fmt.Print("Username: ")
		reader := bufio.NewReader(os.Stdin)
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return fmt.Errorf("failed to read username: %w", readErr)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	creds := domain.Credentials{
		Username:     username,
		Password:     string(passwordBytes),
		CaptchaToken: loginCaptcha,
	}

	ctx := cmd.Context()
	user, err := app.Session.Login(ctx, creds)
	if gateway.IsOTPRequired(err) {
		fmt.Print("One-time code: ")
		reader := bufio.NewReader(os.Stdin)
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return fmt.Errorf("failed to read one-time code: %w", readErr)
		}
		creds.OTP = strings.TrimSpace(line)
		user, err = app.Session.Login(ctx, creds)
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("✓ Successfully authenticated as %s\n", user.Username)
	fmt.Printf("  Server: %s\n", app.ServerURL)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}

	if !app.Session.IsAuthenticated() {
		fmt.Println("Not signed in.")
		return nil
	}

	app.Session.Logout(cmd.Context())
	fmt.Println("✓ Signed out. Stored credentials cleared.")
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}

	fmt.Printf("Server:  %s\n", app.ServerURL)
	fmt.Printf("State:   %s\n", app.Session.State())

	user := app.Session.CurrentUser()
	if user == nil {
		fmt.Println("\nNot signed in. Run 'debrief auth login'.")
		return nil
	}

	fmt.Printf("User:    %s (%s)\n", user.Username, user.AccountType)
	if user.FullName != "" {
		fmt.Printf("Name:    %s\n", user.FullName)
	}
	if user.ClientID != "" {
		fmt.Printf("Client:  %s\n", user.ClientID)
	}

	token := app.Session.Token()
	if remaining := app.Inspector.RemainingMinutes(token); remaining > 0 {
		fmt.Printf("Token:   expires in %d min\n", remaining)
	} else if app.Inspector.IsExpired(token) {
		fmt.Println("Token:   expired")
	} else {
		fmt.Println("Token:   no expiry (development token)")
	}
	return nil
}

func runProfileList(_ *cobra.Command, _ []string) error {
	profiles, err := ListProfiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles configured. Add one with 'debrief auth profile add'.")
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("%s\t%s\n", p.Name, p.ServerURL)
	}
	return nil
}

func runProfileAdd(_ *cobra.Command, args []string) error {
	profile := Profile{Name: args[0], ServerURL: args[1]}
	if err := AddProfile(profile); err != nil {
		return err
	}
	fmt.Printf("✓ Profile '%s' added\n", profile.Name)
	return nil
}

func runProfileRemove(_ *cobra.Command, args []string) error {
	if err := RemoveProfile(args[0]); err != nil {
		return err
	}
	fmt.Printf("✓ Profile '%s' removed\n", args[0])
	return nil
}

// meCmd shows and updates the signed-in user's own record.
var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show or update your own profile",
	RunE:  runMe,
}

var (
	meEmail    string
	meFullName string
)

func init() {
	authCmd.AddCommand(meCmd)
	meCmd.Flags().StringVar(&meEmail, "email", "", "update email address")
	meCmd.Flags().StringVar(&meFullName, "full-name", "", "update display name")
}

func runMe(cmd *cobra.Command, _ []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if !app.Session.IsAuthenticated() {
		return fmt.Errorf("not signed in: run 'debrief auth login' first")
	}

	if meEmail == "" && meFullName == "" {
		user := app.Session.CurrentUser()
		return renderJSON(user)
	}

	update := domain.UserUpdate{}
	if meEmail != "" {
		update.Email = &meEmail
	}
	if meFullName != "" {
		update.FullName = &meFullName
	}

	user, err := app.API.UpdateProfile(cmd.Context(), update)
	if err != nil {
		return err
	}
	app.Session.AdoptUser(*user)
	fmt.Printf("✓ Profile updated for %s\n", user.Username)
	return nil
}

// passwordCmd changes the signed-in user's password.
var passwordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change your password",
	RunE:  runChangePassword,
}

func init() {
	authCmd.AddCommand(passwordCmd)
}

func runChangePassword(cmd *cobra.Command, _ []string) error {
	app, err := getApp()
	if err != nil {
		return err
	}
	if !app.Session.IsAuthenticated() {
		return fmt.Errorf("not signed in: run 'debrief auth login' first")
	}

	fmt.Print("Current password: ")
	current, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print("New password: ")
	next, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := app.API.ChangePassword(cmd.Context(), string(current), string(next)); err != nil {
		return err
	}

	fmt.Println("✓ Password changed")
	return nil
}
