package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/daystreak/habitsync/internal/remote"
	"github.com/daystreak/habitsync/internal/tracker"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage authentication with the sync server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the sync server with your PIN",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the sync server",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account on the sync server",
	RunE:  runRegister,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)

	loginCmd.Flags().String("email", "", "Login using magic link for this email")
	loginCmd.Flags().String("token", "", "Verify magic link token")
}

func readPIN(prompt string) (string, error) {
	fmt.Print(prompt)
	pinBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pinBytes)), nil
}

// saveAuth persists a fresh session into the config file.
func saveAuth(a *app, result *remote.AuthResult) error {
	a.cfg.Token = result.Token
	a.cfg.UserID = result.UserID
	return a.cfg.Save()
}

// finishLogin refreshes the mirror and seeds the starter tasks on a
// brand-new store.
func finishLogin(ctx context.Context, a *app, result *remote.AuthResult) error {
	if err := saveAuth(a, result); err != nil {
		return err
	}

	tr := tracker.New(result.UserID, a.mirror, a.outbox, a.client, a.monitor)
	if err := tr.Hydrate(ctx, "", ""); err != nil {
		fmt.Println("⚠️  Could not pull remote data:", err)
	}
	if err := tr.Seed(ctx); err != nil {
		return err
	}

	fmt.Println("✅ Logged in successfully!")
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	email, _ := cmd.Flags().GetString("email")
	token, _ := cmd.Flags().GetString("token")

	if token != "" {
		fmt.Println("🔄 Verifying magic link token...")
		result, err := a.client.VerifyMagicLink(ctx, token)
		if err != nil {
			return err
		}
		return finishLogin(ctx, a, result)
	}

	if email != "" {
		fmt.Printf("🔄 Requesting magic link for %s...\n", email)
		devToken, err := a.client.RequestMagicLink(ctx, email)
		if err != nil {
			return err
		}
		fmt.Println("📬 Magic link requested! Check your email (or server logs in dev).")
		if devToken != "" {
			fmt.Printf("🔑 Development Token: %s\n", devToken)
		}

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Enter Magic Link Token: ")
		inputToken, _ := reader.ReadString('\n')
		inputToken = strings.TrimSpace(inputToken)
		if inputToken == "" {
			fmt.Println("❌ Token required.")
			return nil
		}

		fmt.Println("🔄 Verifying magic link...")
		result, err := a.client.VerifyMagicLink(ctx, inputToken)
		if err != nil {
			return err
		}
		return finishLogin(ctx, a, result)
	}

	pin, err := readPIN("PIN: ")
	if err != nil {
		return err
	}

	fmt.Println("🔄 Logging in...")
	result, err := a.client.Login(ctx, pin)
	if err != nil {
		return err
	}
	return finishLogin(ctx, a, result)
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	pin, err := readPIN("Choose a PIN (4-8 digits): ")
	if err != nil {
		return err
	}

	fmt.Println("🔄 Creating account...")
	result, err := a.client.Register(ctx, pin, email)
	if err != nil {
		return err
	}
	return finishLogin(ctx, a, result)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.cfg.Token = ""
	a.cfg.UserID = ""
	if err := a.cfg.Save(); err != nil {
		return err
	}

	fmt.Println("✅ Logged out.")
	return nil
}
