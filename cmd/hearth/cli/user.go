package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
		Long:  "Create, list, and remove the users who can authenticate against the API, and rotate their credentials.",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserDeleteCmd())
	cmd.AddCommand(newUserResetCmd())
	cmd.AddCommand(newUserListCmd())

	return cmd
}

// ---------- user create ----------

func newUserCreateCmd() *cobra.Command {
	var (
		email       string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Long:  "Create a user with a generated password and API key. Both are printed once and not recoverable afterwards.",
		Example: `  hearth user create --email alice@example.com
  hearth user create --email alice@example.com --interactive  # prompts for a password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(email, interactive)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email address (required)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for a password instead of generating one")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runUserCreate(email string, interactive bool) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	if interactive {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("generate api key: %w", err)
	}

	st, err := openStore(loadConfig().Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		APIKey:       apiKey,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("Created user %q\n", u.Email)
	if !interactive {
		fmt.Printf("  password: %s\n", password)
	}
	fmt.Printf("  api key:  %s\n", apiKey)
	fmt.Println("Store these now; they are not shown again.")
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", errors.New("passwords do not match")
	}
	if len(pwBytes) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	return string(pwBytes), nil
}

// ---------- user delete ----------

func newUserDeleteCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user",
		Long:  "Delete a user by email. Their access token and posts are removed with them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserDelete(email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email address (required)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runUserDelete(email string) error {
	st, err := openStore(loadConfig().Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.DeleteUser(context.Background(), email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with email %q", email)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	fmt.Printf("Deleted user %q\n", store.NormalizeEmail(email))
	return nil
}

// ---------- user reset ----------

func newUserResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Rotate a user's credentials",
	}

	cmd.AddCommand(newUserResetPasswordCmd())
	cmd.AddCommand(newUserResetAPIKeyCmd())

	return cmd
}

func newUserResetPasswordCmd() *cobra.Command {
	var (
		email       string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset a user's password",
		Long:  "Generate a new password for the user and print it once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserResetPassword(email, interactive)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email address (required)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for a password instead of generating one")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runUserResetPassword(email string, interactive bool) error {
	password, err := auth.GeneratePassword()
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	if interactive {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	st, err := openStore(loadConfig().Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	u, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with email %q", email)
		}
		return fmt.Errorf("look up user: %w", err)
	}
	if err := st.UpdateUserPassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	fmt.Printf("Reset password for %q\n", u.Email)
	if !interactive {
		fmt.Printf("  password: %s\n", password)
		fmt.Println("Store it now; it is not shown again.")
	}
	return nil
}

func newUserResetAPIKeyCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Reset a user's API key",
		Long:  "Generate a new API key for the user and print it once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserResetAPIKey(email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email address (required)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runUserResetAPIKey(email string) error {
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("generate api key: %w", err)
	}

	st, err := openStore(loadConfig().Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	u, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with email %q", email)
		}
		return fmt.Errorf("look up user: %w", err)
	}
	if err := st.UpdateUserAPIKey(ctx, u.ID, apiKey); err != nil {
		return fmt.Errorf("update api key: %w", err)
	}

	fmt.Printf("Reset API key for %q\n", u.Email)
	fmt.Printf("  api key: %s\n", apiKey)
	fmt.Println("Store it now; it is not shown again.")
	return nil
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUserList(jsonOutput bool) error {
	st, err := openStore(loadConfig().Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	if len(users) == 0 {
		fmt.Println("No users configured. Use 'hearth user create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-36s %-20s\n", "ID", "EMAIL", "CREATED")
	fmt.Printf("%-6s %-36s %-20s\n", "--", "-----", "-------")
	for _, u := range users {
		fmt.Printf("%-6d %-36s %-20s\n", u.ID, u.Email, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}
