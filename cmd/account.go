package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriTalk/internal/app"
	"github.com/Rorical/RoriTalk/internal/core"
	"github.com/Rorical/RoriTalk/internal/models"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Log in, register and manage your account without the TUI",
}

// openControllers builds the controllers for the active profile. One-shot commands
// never change screens, so no navigation hook is set.
func openControllers() (*app.Session, *core.Controllers) {
	session, err := app.OpenSession()
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	controllers, err := core.NewControllers(session.Client, session.Jar.Clear, core.Hooks{})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	return session, controllers
}

// finish prints the notification left by an operation and exits non-zero if it failed.
func finish(c *core.Controllers, err error) {
	note := c.Notifier.Current()
	if !note.IsZero() {
		if note.Severity == models.SeverityError {
			fmt.Fprintln(os.Stderr, note.Message)
		} else {
			fmt.Println(note.Message)
		}
	}
	if err != nil {
		if note.IsZero() {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// requireSession exits unless the stored cookie is still a live session.
func requireSession(ctx context.Context, c *core.Controllers) models.SessionIdentity {
	result := c.Guard.CheckSession(ctx)
	if !result.Authenticated {
		fmt.Fprintln(os.Stderr, "Not logged in. Run: roritalk account login")
		os.Exit(1)
	}
	return result.Identity
}

func prompt(label, def string, masked bool) string {
	p := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	if masked {
		p.Mask = '*'
	}
	value, err := p.Run()
	if err != nil {
		log.Fatalf("Prompt failed: %v", err)
	}
	return value
}

// flagOrPrompt returns the flag value, asking for it when the flag is empty.
func flagOrPrompt(cmd *cobra.Command, name, label string, masked bool) string {
	value, _ := cmd.Flags().GetString(name)
	if value != "" {
		return value
	}
	return prompt(label, "", masked)
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and store the session for this profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, c := openControllers()

		username := session.Config.GetUsername()
		if len(args) > 0 {
			username = args[0]
		}
		if username == "" {
			username = prompt("Username", "", false)
		}

		c.Auth.SwitchMode(models.ModeLogin)
		c.Auth.SetField(models.FieldUsername, username)
		c.Auth.SetField(models.FieldPassword, prompt("Password", "", true))
		finish(c, c.Auth.Submit(cmd.Context()))
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account with the code mailed by send-code",
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()

		c.Auth.SwitchMode(models.ModeRegister)
		c.Auth.SetField(models.FieldUsername, flagOrPrompt(cmd, "username", "Username", false))
		c.Auth.SetField(models.FieldEmail, flagOrPrompt(cmd, "email", "Email", false))
		c.Auth.SetField(models.FieldCode, flagOrPrompt(cmd, "code", "Verification code", false))
		c.Auth.SetField(models.FieldPassword, prompt("Password", "", true))
		finish(c, c.Auth.Submit(cmd.Context()))
	},
}

var sendCodeCmd = &cobra.Command{
	Use:   "send-code <email>",
	Short: "Mail a registration verification code",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		finish(c, c.Auth.RequestVerificationCode(cmd.Context(), args[0]))
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Request a password reset email",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		c.Auth.SwitchMode(models.ModeResetPassword)
		c.Auth.SetField(models.FieldEmail, args[0])
		finish(c, c.Auth.Submit(cmd.Context()))
	},
}

var showAccountCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the logged-in user's profile",
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		identity := requireSession(cmd.Context(), c)

		profile, err := c.Profile.Load(cmd.Context(), identity)
		if err != nil {
			finish(c, err)
		}
		fmt.Printf("Login: %s\n", profile.Login)
		fmt.Printf("Email: %s\n", profile.Email)
		fmt.Printf("ID: %s\n", profile.ID)
		if !profile.CreatedAt.IsZero() {
			fmt.Printf("Registered: %s (%s)\n", profile.CreatedAt.Format("2006-01-02 15:04"), humanize.Time(profile.CreatedAt))
		}
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		requireSession(cmd.Context(), c)

		oldPassword := prompt("Current password", "", true)
		newPassword := prompt("New password", "", true)
		confirm := prompt("Confirm new password", "", true)
		finish(c, c.Profile.ChangePassword(cmd.Context(), oldPassword, newPassword, confirm))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the stored cookie",
	Run: func(cmd *cobra.Command, args []string) {
		_, c := openControllers()
		finish(c, c.Profile.Logout(cmd.Context()))
	},
}

func init() {
	registerCmd.Flags().String("username", "", "account name")
	registerCmd.Flags().String("email", "", "email the code was sent to")
	registerCmd.Flags().String("code", "", "verification code from the email")

	accountCmd.AddCommand(loginCmd)
	accountCmd.AddCommand(registerCmd)
	accountCmd.AddCommand(sendCodeCmd)
	accountCmd.AddCommand(resetPasswordCmd)
	accountCmd.AddCommand(showAccountCmd)
	accountCmd.AddCommand(passwdCmd)
	accountCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(accountCmd)
}
