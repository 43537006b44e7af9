package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/cmd/backend"
	"gitlab.com/lfmsh/bank/models"
)

func NewBadgeCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "badges",
		Aliases: []string{"badge"},
		Short:   "Manage badges worn by users",
	}

	cmd.AddCommand(newBadgeListCmd(newClient))
	cmd.AddCommand(newBadgeShowCmd(newClient))
	cmd.AddCommand(newBadgeCreateCmd(newClient))
	cmd.AddCommand(newBadgeUpdateCmd(newClient))
	cmd.AddCommand(newBadgeDeleteCmd(newClient))
	cmd.AddCommand(newBadgeAssignCmd(newClient))
	cmd.AddCommand(newBadgeUnassignCmd(newClient))
	cmd.AddCommand(newBadgeImageCmd(newClient, fs))
	cmd.AddCommand(newBadgeURLCmd(newClient))

	return cmd
}

func newBadgeListCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List badges",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			c, err := newClient()
			if err != nil {
				return err
			}
			badges, err := c.Badges(cmd.Context(), all)
			if err != nil {
				return fmt.Errorf("could not list badges: %w", err)
			}
			printBadges(cmd.OutOrStdout(), badges)
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "include inactive badges (superusers only)")
	return cmd
}

func newBadgeShowCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a badge",
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
			badge, err := c.Badge(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("could not fetch badge %d: %w", id, err)
			}
			printBadge(cmd.OutOrStdout(), badge)
			return nil
		},
	}
}

func newBadgeCreateCmd(newClient ClientFactory) *cobra.Command {
	var create models.BadgeCreate

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a badge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			create.Name = strings.TrimSpace(args[0])
			if create.Name == "" {
				return fmt.Errorf("badge name is required")
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			badge, err := c.CreateBadge(cmd.Context(), create)
			if err != nil {
				return fmt.Errorf("could not create badge: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created badge %d %s\n", badge.ID, badge.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&create.Description, "description", "d", "", "badge description")
	return cmd
}

func newBadgeUpdateCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the name, description or state of a badge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update models.BadgeUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				name, _ := flags.GetString("name")
				update.Name = &name
			}
			if flags.Changed("description") {
				description, _ := flags.GetString("description")
				update.Description = &description
			}
			if flags.Changed("active") {
				active, _ := flags.GetBool("active")
				update.IsActive = &active
			}
			if update.Name == nil && update.Description == nil && update.IsActive == nil {
				return fmt.Errorf("nothing to update")
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			badge, err := c.UpdateBadge(cmd.Context(), id, update)
			if err != nil {
				return fmt.Errorf("could not update badge %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Badge %d updated\n", badge.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().Bool("active", true, "whether the badge can be worn")
	return cmd
}

func newBadgeDeleteCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a badge and take it off every user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")
			if err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), yes, fmt.Sprintf("Delete badge %d?", id)); err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteBadge(cmd.Context(), id); err != nil {
				return fmt.Errorf("could not delete badge %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Badge %d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newBadgeAssignCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <badge-id> <user>",
		Short: "Hang a badge on a user, given by username or id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			badgeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			userID, err := resolveUserID(cmd.Context(), c, args[1])
			if err != nil {
				return err
			}
			result, err := c.AssignBadge(cmd.Context(), badgeID, userID)
			if err != nil {
				return fmt.Errorf("could not assign badge: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
}

func newBadgeUnassignCmd(newClient ClientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <user>",
		Short: "Take the badge off a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			userID, err := resolveUserID(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			result, err := c.UnassignBadge(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("could not remove badge: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
}

func newBadgeImageCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Upload or remove badge images",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <id> <image>",
		Short: "Replace the image of a badge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := fs.Open(args[1])
			if err != nil {
				return fmt.Errorf("could not open %s: %w", args[1], err)
			}
			defer f.Close()

			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.UploadBadgeImage(cmd.Context(), id, filepath.Base(args[1]), f)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Badge %d image updated: %s\n", id, result.Filename)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove the image of a badge",
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
			if _, err := c.DeleteBadgeImage(cmd.Context(), id); err != nil {
				return fmt.Errorf("could not delete image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Badge %d image deleted\n", id)
			return nil
		},
	})

	return cmd
}

func newBadgeURLCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url <id>",
		Short: "Print the public address of a badge image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			size, _ := cmd.Flags().GetString("size")
			if err := checkImageSize(size); err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.BadgeImageURL(id, size))
			return nil
		},
	}
	cmd.Flags().String("size", client.AvatarSmall, "image size: "+strings.Join(client.AvatarSizes, ", "))
	return cmd
}

// resolveUserID accepts a username or a numeric user id.
func resolveUserID(ctx context.Context, c backend.BankClient, arg string) (uint, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not list users: %w", err)
	}
	for _, u := range users {
		if u.Username == arg {
			return u.ID, nil
		}
	}
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("unknown user %q", arg)
	}
	return uint(id), nil
}
