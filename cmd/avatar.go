package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/cmd/backend"
)

func NewAvatarCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Manage profile pictures",
	}

	cmd.AddCommand(newAvatarUploadCmd(newClient, fs))
	cmd.AddCommand(newAvatarSetCmd(newClient, fs))
	cmd.AddCommand(newAvatarDeleteCmd(newClient))
	cmd.AddCommand(newAvatarURLCmd(newClient))

	return cmd
}

func newAvatarUploadCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <image>",
		Short: "Replace your own avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			me, err := c.Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not fetch profile: %w", err)
			}

			f, err := fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("could not open %s: %w", args[0], err)
			}
			defer f.Close()

			user, err := c.UploadAvatar(cmd.Context(), me.Username, filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Avatar updated: %s\n", user.Avatar)
			return nil
		},
	}
}

func newAvatarSetCmd(newClient ClientFactory, fs backend.FileSystem) *cobra.Command {
	return &cobra.Command{
		Use:   "set <username> <image>",
		Short: "Replace the avatar of another user (staff only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fs.Open(args[1])
			if err != nil {
				return fmt.Errorf("could not open %s: %w", args[1], err)
			}
			defer f.Close()

			c, err := newClient()
			if err != nil {
				return err
			}
			user, err := c.AdminSetAvatar(cmd.Context(), args[0], filepath.Base(args[1]), f)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Avatar of %s updated: %s\n", user.Username, user.Avatar)
			return nil
		},
	}
}

func newAvatarDeleteCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Remove the avatar of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), yes, fmt.Sprintf("Delete avatar of %s?", args[0]))
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			if _, err := c.DeleteAvatar(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("could not delete avatar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Avatar of %s deleted\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newAvatarURLCmd(newClient ClientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url <username>",
		Short: "Print the public address of an avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetString("size")
			if err := checkImageSize(size); err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.AvatarURL(args[0], size))
			return nil
		},
	}
	cmd.Flags().String("size", client.AvatarMedium, "avatar size: "+strings.Join(client.AvatarSizes, ", "))
	return cmd
}

func checkImageSize(size string) error {
	for _, s := range client.AvatarSizes {
		if s == size {
			return nil
		}
	}
	return fmt.Errorf("unknown size %q, expected one of %s", size, strings.Join(client.AvatarSizes, ", "))
}
