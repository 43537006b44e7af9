package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/cmd/backend"
	"gitlab.com/lfmsh/bank/internal/config"
	"gitlab.com/lfmsh/bank/internal/logger"
)

// ClientFactory builds the API client once flags and config are known.
type ClientFactory func() (backend.BankClient, error)

var flagAPIURL string

var rootCmd = &cobra.Command{
	Use:     "bank",
	Short:   "LFMSH summer school bank",
	Long:    `Command line client of the LFMSH summer school bank: balances, transactions, seminars and avatars.`,
	Version: Version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: false,
		HiddenDefaultCmd:  true,
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// CheckErr prints formatted error message, if there is any, and exits
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

// newClient talks to --api-url or the configured API and keeps the tokens
// in the configured credentials file.
func newClient() (backend.BankClient, error) {
	cfg := config.GetConfig().Client
	baseURL := cfg.APIURL
	if flagAPIURL != "" {
		baseURL = flagAPIURL
	}

	c, err := client.New(client.Config{
		BaseURL: baseURL,
		Store:   client.NewFileStore(afero.NewOsFs(), cfg.CredentialsPath),
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired, log in again with: bank login")
		},
		Logger: logger.New("client").Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create API client: %w", err)
	}
	return c, nil
}
