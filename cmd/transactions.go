package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/cmd/backend"
	"gitlab.com/lfmsh/bank/models"
)

func NewTransactionsCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Create, inspect and process transactions",
	}

	cmd.AddCommand(newTxListCmd(newClient))
	cmd.AddCommand(newTxShowCmd(newClient))
	cmd.AddCommand(newTxCreateCmd(newClient))
	cmd.AddCommand(newTxTransitionCmd(newClient, "process", "Apply a created transaction to balances",
		func(ctx context.Context, c backend.BankClient, id uint) (models.Transaction, error) {
			return c.ProcessTransaction(ctx, id)
		}))
	cmd.AddCommand(newTxTransitionCmd(newClient, "decline", "Decline a transaction, reverting it when already processed",
		func(ctx context.Context, c backend.BankClient, id uint) (models.Transaction, error) {
			return c.DeclineTransaction(ctx, id)
		}))

	return cmd
}

func newTxListCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transactions visible to you",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			txType, _ := cmd.Flags().GetString("type")

			filter := client.TransactionFilter{
				Status: models.TransactionState(status),
				Type:   models.TransactionType(txType),
			}
			if filter.Type != "" && !filter.Type.Valid() {
				return fmt.Errorf("unknown transaction type %q", txType)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			txs, err := c.Transactions(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("could not list transactions: %w", err)
			}
			printTransactions(cmd.OutOrStdout(), txs)
			return nil
		},
	}
	cmd.Flags().String("status", "", "filter by status: created, processed, declined, substituted")
	cmd.Flags().String("type", "", "filter by transaction type")
	return cmd
}

func newTxShowCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a transaction with its receivers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			tx, err := c.Transaction(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("could not fetch transaction %d: %w", id, err)
			}
			printTransaction(cmd.OutOrStdout(), tx)
			return nil
		},
	}
}

func newTxCreateCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a transaction",
		Long: `Create a transaction. Receivers are given as --to username:amount, repeated;
a numeric user id works in place of the username. Attendance types take plain --to username.

  bank tx create --type p2p --to ivanov:10 --description "for lunch"
  bank tx create --type lec_attend --to ivanov --to petrov`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			txType, _ := cmd.Flags().GetString("type")
			desc, _ := cmd.Flags().GetString("description")
			to, _ := cmd.Flags().GetStringArray("to")
			updateOf, _ := cmd.Flags().GetUint("update-of")
			process, _ := cmd.Flags().GetBool("process")

			t := models.TransactionType(txType)
			if !t.Valid() {
				return fmt.Errorf("unknown transaction type %q", txType)
			}
			if len(to) == 0 {
				return fmt.Errorf("at least one --to receiver is required")
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			recipients, err := resolveRecipients(cmd.Context(), c, t, to)
			if err != nil {
				return err
			}

			create := models.TransactionCreate{
				Type:        t,
				Description: desc,
				Recipients:  recipients,
			}
			if updateOf != 0 {
				create.UpdateOf = &updateOf
			}

			tx, err := c.CreateTransaction(cmd.Context(), create)
			if err != nil {
				return fmt.Errorf("could not create transaction: %w", err)
			}
			if process {
				id := tx.ID
				tx, err = c.ProcessTransaction(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("transaction %d created but not processed: %w", id, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d %s\n", tx.ID, tx.Status)
			return nil
		},
	}

	cmd.Flags().StringP("type", "t", string(models.TypeP2P), "transaction type")
	cmd.Flags().StringP("description", "d", "", "what the transaction is for")
	cmd.Flags().StringArray("to", nil, "receiver as username:amount, repeatable")
	cmd.Flags().Uint("update-of", 0, "id of the transaction this one replaces")
	cmd.Flags().Bool("process", false, "process the transaction right after creating it")

	return cmd
}

func newTxTransitionCmd(newClient ClientFactory, use, short string,
	apply func(context.Context, backend.BankClient, uint) (models.Transaction, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			err = confirm(cmd.InOrStdin(), cmd.OutOrStdout(), yes, fmt.Sprintf("%s transaction %d?", strings.ToUpper(use[:1])+use[1:], id))
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			tx, err := apply(cmd.Context(), c, id)
			if err != nil {
				return fmt.Errorf("could not %s transaction %d: %w", use, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d %s\n", tx.ID, tx.Status)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

// parseReceiver splits "username:amount". The amount may be omitted for attendance types.
func parseReceiver(arg string, t models.TransactionType) (string, float64, error) {
	username, amount, hasAmount := strings.Cut(arg, ":")
	username = strings.TrimSpace(username)
	if username == "" {
		return "", 0, fmt.Errorf("invalid receiver %q: empty username", arg)
	}
	if !hasAmount {
		if t.AmountImplied() {
			return username, 0, nil
		}
		return "", 0, fmt.Errorf("invalid receiver %q: expected username:amount", arg)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid amount in %q: %w", arg, err)
	}
	return username, value, nil
}

func resolveRecipients(ctx context.Context, c backend.BankClient, t models.TransactionType, to []string) ([]models.TransactionRecipient, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	ids := make(map[string]uint, len(users))
	for _, u := range users {
		ids[u.Username] = u.ID
	}

	recipients := make([]models.TransactionRecipient, 0, len(to))
	for _, arg := range to {
		username, amount, err := parseReceiver(arg, t)
		if err != nil {
			return nil, err
		}
		id, ok := ids[username]
		if !ok {
			n, err := strconv.ParseUint(username, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unknown user %q", username)
			}
			id = uint(n)
		}
		recipients = append(recipients, models.TransactionRecipient{ID: id, Amount: amount})
	}
	return recipients, nil
}
