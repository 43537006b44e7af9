package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/models"
)

func NewSeminarCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seminar",
		Short: "Record and browse seminar talks",
	}

	cmd.AddCommand(newSeminarCreateCmd(newClient))
	cmd.AddCommand(newSeminarListCmd(newClient))
	cmd.AddCommand(newSeminarShowCmd(newClient))

	return cmd
}

// parseEvaluation reads field=value marks into an evaluation.
func parseEvaluation(marks []string) (models.SeminarEvaluation, error) {
	var eval models.SeminarEvaluation
	for _, mark := range marks {
		field, value, ok := strings.Cut(mark, "=")
		if !ok {
			return eval, fmt.Errorf("invalid mark %q: expected field=value", mark)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return eval, fmt.Errorf("invalid mark %q: %w", mark, err)
		}
		if err := eval.Set(strings.TrimSpace(field), n); err != nil {
			return eval, err
		}
	}
	return eval, eval.Validate()
}

func newSeminarCreateCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a seminar talk and pay the speaker",
		Long: `Record a seminar talk. Marks are given as --score field=value, unset fields are 0.
The speaker is paid the total score and attendees get a seminar attendance.

  bank seminar create --speaker ivanov --block first --description "Graphs" \
    --score contentQuality=1 --score knowledgeQuality=2 --attendee petrov`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			speaker, _ := cmd.Flags().GetString("speaker")
			block, _ := cmd.Flags().GetString("block")
			desc, _ := cmd.Flags().GetString("description")
			marks, _ := cmd.Flags().GetStringArray("score")
			attendees, _ := cmd.Flags().GetStringArray("attendee")

			if speaker == "" || desc == "" {
				return fmt.Errorf("--speaker and --description are required")
			}
			eval, err := parseEvaluation(marks)
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			created, err := c.CreateSeminar(cmd.Context(), models.SeminarCreate{
				Speaker:     speaker,
				Block:       block,
				Description: desc,
				Evaluation:  eval,
				TotalScore:  eval.Total(),
				Attendees:   attendees,
			})
			if err != nil {
				return fmt.Errorf("could not record seminar: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.Message)
			fmt.Fprintf(cmd.OutOrStdout(), "Seminar %d, transaction %d\n", created.Seminar.ID, created.TransactionID)
			return nil
		},
	}

	cmd.Flags().String("speaker", "", "username of the speaker")
	cmd.Flags().String("block", models.SeminarBlocks[0], "time slot: "+strings.Join(models.SeminarBlocks, ", "))
	cmd.Flags().StringP("description", "d", "", "topic of the talk")
	cmd.Flags().StringArray("score", nil, "evaluation mark as field=value, repeatable")
	cmd.Flags().StringArray("attendee", nil, "username of an attendee, repeatable")

	return cmd
}

func newSeminarListCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded seminars",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			seminars, err := c.Seminars(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not list seminars: %w", err)
			}
			printSeminars(cmd.OutOrStdout(), seminars)
			return nil
		},
	}
}

func newSeminarShowCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a seminar with its evaluation",
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
			seminar, err := c.Seminar(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("could not fetch seminar %d: %w", id, err)
			}
			printSeminar(cmd.OutOrStdout(), seminar)
			return nil
		},
	}
}
