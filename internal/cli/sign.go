package cli

import (
	"os"
	"path/filepath"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/sign"
	"github.com/spf13/cobra"
)

// Environment fallbacks for the signing certificate.
const (
	certEnvVar         = "CODESIGN_CERT_BASE64"
	certPasswordEnvVar = "CODESIGN_CERT_PASSWORD"
)

var (
	signCertPath     string
	signTimestampURL string
)

// NewSignCmd creates the sign command.
func NewSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <app-file>",
		Short: "Code-sign an extension artifact",
		Long: `Code-sign an extension artifact with signtool (Windows) or osslsigncode.
The certificate comes from --cert-path or from the ` + certEnvVar + ` and
` + certPasswordEnvVar + ` environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: runSign,
	}

	cmd.Flags().StringVar(&signCertPath, "cert-path", "", "path to a PKCS#12 certificate bundle")
	cmd.Flags().StringVar(&signTimestampURL, "timestamp-url", "", "RFC 3161 timestamp authority (default: from config)")
	return cmd
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	appPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	timestampURL := signTimestampURL
	if timestampURL == "" {
		timestampURL = cfg.Settings.Signing.TimestampURL
	}

	signer := sign.New()
	err = signer.Sign(cmd.Context(), appPath, sign.Options{
		CertBase64:   os.Getenv(certEnvVar),
		CertPath:     signCertPath,
		CertPassword: os.Getenv(certPasswordEnvVar),
		TimestampURL: timestampURL,
	})
	if err != nil {
		return err
	}

	logger.Successf("Signed %s", filepath.Base(appPath))
	return nil
}
