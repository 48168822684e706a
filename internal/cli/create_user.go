package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"assessment-service/internal/app"
	"assessment-service/internal/auth"
	"assessment-service/internal/config"
	"assessment-service/internal/domain"
)

type createUserOptions struct {
	name     string
	email    string
	password string
	role     string
}

// NewCreateUserCmd provisions an account directly in storage, including roles
// that self-signup never grants.
func NewCreateUserCmd(configPath *string) *cobra.Command {
	opts := &createUserOptions{}
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account (e.g. the first superadmin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(cmd.Context(), cmd.OutOrStdout(), *configPath, *opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "email for email/password login; omit to generate a login id")
	cmd.Flags().StringVar(&opts.password, "password", "", "initial password")
	cmd.Flags().StringVar(&opts.role, "role", string(domain.RoleAdmin), "admin, mentor, superadmin or user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runCreateUser(ctx context.Context, out io.Writer, configPath string, opts createUserOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Storage.Driver == config.DriverMemory || cfg.Storage.Driver == "" {
		return fmt.Errorf("create-user needs a persistent storage driver, got %q", cfg.Storage.Driver)
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	tokens := auth.NewManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour), cfg.Auth.Issuer)
	svc := app.NewAuthService(b.repos.Users, tokens, true, log)
	return createUser(ctx, out, svc, opts)
}

func createUser(ctx context.Context, out io.Writer, svc *app.AuthService, opts createUserOptions) error {
	role := domain.Role(opts.role)
	var (
		user domain.User
		err  error
	)
	if opts.email != "" {
		user, err = svc.Bootstrap(ctx, app.SignupInput{Email: opts.email, Name: opts.name, Password: opts.password, Role: role})
	} else {
		user, err = svc.CreateWithRole(ctx, opts.name, opts.password, role)
	}
	if err != nil {
		return err
	}

	login := user.Email
	if login == "" {
		login = user.LoginID
	}
	_, err = fmt.Fprintf(out, "created %s %s (id %s, login %s)\n", user.Role, user.Name, user.ID, login)
	return err
}
