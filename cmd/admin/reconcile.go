package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/tasks"
	"github.com/spf13/cobra"
)

func reconcileCmd(current func() *app) *cobra.Command {
	var (
		postID  string
		enqueue bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute vote tallies from the stored votes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			ctx := cmd.Context()

			var ids []uuid.UUID
			if postID != "" {
				id, err := uuid.Parse(postID)
				if err != nil {
					return fmt.Errorf("invalid post id %q", postID)
				}
				ids = append(ids, id)
			}

			if enqueue {
				task, err := tasks.NewVoteReconcileTask(ids...)
				if err != nil {
					return err
				}
				if err := a.enqueue(ctx, task); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reconcile enqueued")
				return nil
			}

			tally := a.tally()
			if len(ids) == 0 {
				corrected, err := tally.ReconcileAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Corrected %d posts\n", corrected)
				return nil
			}

			drifted, err := tally.Reconcile(ctx, ids[0])
			if err != nil {
				return err
			}
			if drifted {
				fmt.Fprintln(cmd.OutOrStdout(), "Corrected 1 post")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Post already consistent")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&postID, "post", "", "only this post id")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "run in the worker instead of inline")
	return cmd
}
