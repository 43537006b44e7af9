package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/cmd/backend"
	"gitlab.com/lfmsh/bank/models"
)

func NewMeCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your own profile and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			me, err := c.Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not fetch profile: %w", err)
			}
			printUser(cmd.OutOrStdout(), me)
			return nil
		},
	}
}

func NewUsersCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List, inspect and import users",
	}

	cmd.AddCommand(newUsersListCmd(newClient))
	cmd.AddCommand(newUsersShowCmd(newClient))
	cmd.AddCommand(newUsersCreateCmd(newClient))
	cmd.AddCommand(newUsersUpdateCmd(newClient))
	cmd.AddCommand(newUsersImportImagesCmd(newClient, fs))
	cmd.AddCommand(newUsersImportCSVCmd(newClient, fs))

	return cmd
}

func newUsersListCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			party, _ := cmd.Flags().GetInt("party")
			pioneers, _ := cmd.Flags().GetBool("pioneers")
			staff, _ := cmd.Flags().GetBool("staff")
			if pioneers && staff {
				return fmt.Errorf("--pioneers and --staff are mutually exclusive")
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			users, err := c.Users(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not list users: %w", err)
			}
			filtered := make([]models.UserListItem, 0, len(users))
			for _, u := range users {
				switch {
				case staff && !u.Staff:
				case (pioneers || party > 0) && u.Staff:
				case party > 0 && u.Party != party:
				default:
					filtered = append(filtered, u)
				}
			}
			printUsers(cmd.OutOrStdout(), filtered)
			return nil
		},
	}
	cmd.Flags().Int("party", 0, "only show pioneers of this party")
	cmd.Flags().Bool("pioneers", false, "only show pioneers")
	cmd.Flags().Bool("staff", false, "only show staff")
	return cmd
}

func newUsersShowCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show the profile of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			user, err := c.User(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("could not fetch user %s: %w", args[0], err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func newUsersCreateCmd(newClient ClientFactory) *cobra.Command {
	var create models.UserCreate

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create a user account. The username is generated from the name when
--username is empty, the password falls back to the server default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if create.FirstName == "" || create.LastName == "" {
				return fmt.Errorf("--first-name and --last-name are required")
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			user, err := c.CreateUser(cmd.Context(), create)
			if err != nil {
				return fmt.Errorf("could not create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&create.Username, "username", "", "username, generated when empty")
	cmd.Flags().StringVar(&create.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&create.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&create.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&create.MiddleName, "middle-name", "", "middle name")
	cmd.Flags().IntVar(&create.Party, "party", 0, "party number")
	cmd.Flags().IntVar(&create.Grade, "grade", 0, "school grade")
	cmd.Flags().BoolVar(&create.Staff, "staff", false, "create a staff account")
	cmd.Flags().BoolVar(&create.Superuser, "superuser", false, "create a superuser account")

	return cmd
}

func newUsersUpdateCmd(newClient ClientFactory) *cobra.Command {
	var update models.UserUpdate

	cmd := &cobra.Command{
		Use:   "update <username|id>",
		Short: "Change an account (superusers only)",
		Long: `Change an account. Only the flags given on the command line are sent,
empty strings leave the field unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("party") {
				party, _ := flags.GetInt("party")
				update.Party = &party
			}
			if flags.Changed("grade") {
				grade, _ := flags.GetInt("grade")
				update.Grade = &grade
			}
			for name, field := range map[string]**bool{
				"active":    &update.IsActive,
				"staff":     &update.Staff,
				"superuser": &update.Superuser,
			} {
				if flags.Changed(name) {
					value, _ := flags.GetBool(name)
					*field = &value
				}
			}
			if update.Empty() {
				return fmt.Errorf("nothing to update")
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			id, err := resolveUserID(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			user, err := c.UpdateUser(cmd.Context(), id, update)
			if err != nil {
				return fmt.Errorf("could not update user %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&update.Username, "username", "", "new username")
	cmd.Flags().StringVar(&update.Password, "password", "", "new password")
	cmd.Flags().StringVar(&update.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&update.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&update.MiddleName, "middle-name", "", "middle name")
	cmd.Flags().Int("party", 0, "party number")
	cmd.Flags().Int("grade", 0, "school grade")
	cmd.Flags().Bool("active", true, "whether the account can log in")
	cmd.Flags().Bool("staff", false, "staff role")
	cmd.Flags().Bool("superuser", false, "superuser role")

	return cmd
}

func newUsersImportImagesCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	return &cobra.Command{
		Use:   "import-images <file>...",
		Short: "Create pioneers from photos named Last_First_Middle_Party_Grade.png",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]client.File, 0, len(args))
			for _, path := range args {
				f, err := fs.Open(path)
				if err != nil {
					return fmt.Errorf("could not open %s: %w", path, err)
				}
				defer f.Close()
				files = append(files, client.File{Name: filepath.Base(path), Reader: f})
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.ImportUsersFromImages(cmd.Context(), files)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			printImportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newUsersImportCSVCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Create users from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("could not open %s: %w", args[0], err)
			}
			defer f.Close()

			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.ImportUsersCSV(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			printImportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
