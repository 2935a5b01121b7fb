package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/config"
	"github.com/nuoa-io/nuoactl/internal/secrets"
	"github.com/nuoa-io/nuoactl/internal/tenant"
)

// NewTenantCommand returns the tenant subcommand.
func NewTenantCommand() *cli.Command {
	return &cli.Command{
		Name:  "tenant",
		Usage: "Authenticate against the tenant API",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and cache the access token encrypted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "api",
						Usage: "Tenant API base URL (overrides config)",
					},
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Username (prompted when omitted)",
					},
				},
				Action: runTenantLogin,
			},
			{
				Name:   "token",
				Usage:  "Print the cached access token",
				Action: runTenantToken,
			},
		},
	}
}

func newTokenCache() *tenant.TokenCache {
	return tenant.NewTokenCache(filepath.Join(config.NuoaPath(), "tenant"), secrets.KeyPath())
}

func runTenantLogin(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	apiBase := cmd.String("api")
	if apiBase == "" {
		apiBase = cfg.Tenant.APIBase
	}
	if apiBase == "" {
		return fmt.Errorf("tenant API base URL is not configured; pass --api or set tenant.api_base")
	}

	username := cmd.String("user")
	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	password, err := tenant.ReadPassword("Password: ")
	if err != nil {
		return err
	}

	client := tenant.NewClient(apiBase, cfg.Tenant.ClientID)
	token, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := newTokenCache().Save(token); err != nil {
		return fmt.Errorf("cache token: %w", err)
	}

	fmt.Printf("Logged in as %s. Token valid until %s.\n",
		username, token.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runTenantToken(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	token, err := newTokenCache().Load()
	if err != nil {
		return fmt.Errorf("load cached token: %w", err)
	}
	if token == nil {
		return fmt.Errorf("no valid token cached; run: nuoactl tenant login")
	}

	fmt.Println(token.AccessToken)
	return nil
}
