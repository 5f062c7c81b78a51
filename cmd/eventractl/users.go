package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/service"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage dashboard accounts",
	}
	cmd.AddCommand(usersCreateCmd())
	return cmd
}

func usersCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dashboard account",
		Long: `Create a dashboard account with a bcrypt hashed password.

The password is read from --password or, when omitted, from EVENTRA_USER_PASSWORD.

Examples:
  eventractl users create --email ops@example.com --role admin --password s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("EVENTRA_USER_PASSWORD")
			}
			if password == "" {
				return errors.New("password is required (--password or EVENTRA_USER_PASSWORD)")
			}

			_, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			users := service.NewUserService(repository.NewPGXUsersRepository(pool))
			user, err := users.CreateUser(cmd.Context(), service.NewUser{Email: email, Password: password, Role: role})
			if err != nil {
				if errors.Is(err, repository.ErrEmailDuplicate) {
					return fmt.Errorf("a user with email %s already exists", email)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) role=%s\n", user.ID, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("role", service.RoleUser, "Account role (user, admin)")
	cmd.Flags().String("password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
