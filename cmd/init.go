package cmd

import (
	"gitlab.com/lfmsh/bank/cmd/backend"
)

var (
	fileSystemService = backend.NewOSFileSystem()
	terminalService   = backend.NewTerminal()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "bank API base URL, overrides client.api_url")

	// session
	rootCmd.AddCommand(NewLoginCmd(newClient, terminalService))
	rootCmd.AddCommand(NewLogoutCmd(newClient))
	rootCmd.AddCommand(NewStatusCmd(newClient))

	// ledger
	rootCmd.AddCommand(NewMeCmd(newClient))
	rootCmd.AddCommand(NewUsersCmd(newClient, fileSystemService))
	rootCmd.AddCommand(NewTransactionsCmd(newClient))
	rootCmd.AddCommand(NewSeminarCmd(newClient))
	rootCmd.AddCommand(NewStatsCmd(newClient))
	rootCmd.AddCommand(NewTaxCmd(newClient))
	rootCmd.AddCommand(NewAvatarCmd(newClient, fileSystemService))
	rootCmd.AddCommand(NewBadgeCmd(newClient, fileSystemService))

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(versionCmd)
}
