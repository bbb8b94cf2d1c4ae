package cli

import (
	"os"
	"path/filepath"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/publish"
	"github.com/spf13/cobra"
)

// Environment fallbacks for the AppSource service principal.
const (
	clientIDEnvVar     = "APPSOURCE_CLIENT_ID"
	clientSecretEnvVar = "APPSOURCE_CLIENT_SECRET"
)

var publishTenantID string

// NewPublishCmd creates the publish command.
func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <app-file>",
		Short: "Submit an extension artifact to AppSource",
		Long: `Submit an extension artifact to AppSource through the Partner Center
PowerShell module. The service principal is read from the
` + clientIDEnvVar + ` and ` + clientSecretEnvVar + ` environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: runPublish,
	}

	cmd.Flags().StringVar(&publishTenantID, "tenant-id", "", "Azure AD tenant of the Partner Center account (default: from config)")
	return cmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	appPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	tenantID := publishTenantID
	if tenantID == "" {
		tenantID = cfg.Settings.Publish.TenantID
	}

	publisher := publish.New()
	err = publisher.Publish(cmd.Context(), publish.Options{
		AppFile: appPath,
		Credentials: publish.Credentials{
			TenantID:     tenantID,
			ClientID:     os.Getenv(clientIDEnvVar),
			ClientSecret: os.Getenv(clientSecretEnvVar),
		},
	})
	if err != nil {
		return err
	}

	logger.Successf("Submitted %s to AppSource", filepath.Base(appPath))
	return nil
}
