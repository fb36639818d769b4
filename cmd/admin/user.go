package main

import (
	"errors"
	"fmt"

	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/tasks"
	"github.com/spf13/cobra"
)

func userCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage users",
	}

	cmd.AddCommand(rotateTokenCmd(current), deleteUserCmd(current))
	return cmd
}

func rotateTokenCmd(current func() *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "rotate-token",
		Short: "Issue a new authentication token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := current().authService().RotateToken(cmd.Context(), email)
			if errors.Is(err, auth.ErrUserNotFound) {
				return fmt.Errorf("no user with email %q", email)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func deleteUserCmd(current func() *app) *cobra.Command {
	var (
		email   string
		enqueue bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and their votes",
		Long:  "Delete a user and their votes. Their posts stay, without an author, and so does their organization.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			ctx := cmd.Context()

			postIDs, err := a.authService().DeleteUser(ctx, email)
			if errors.Is(err, auth.ErrUserNotFound) {
				return fmt.Errorf("no user with email %q", email)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", email)

			if len(postIDs) == 0 {
				return nil
			}
			if enqueue {
				task, err := tasks.NewVoteReconcileTask(postIDs...)
				if err != nil {
					return err
				}
				return a.enqueue(ctx, task)
			}

			tally := a.tally()
			for _, id := range postIDs {
				if _, err := tally.Reconcile(ctx, id); err != nil {
					return fmt.Errorf("refreshing tallies of post %s: %w", id, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed tallies of %d posts\n", len(postIDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "refresh affected tallies in the worker")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
