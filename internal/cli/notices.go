package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/record"
)

// NewNoticesCommand creates the notices command group.
func NewNoticesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notices",
		Aliases: []string{"notifications"},
		Short:   "Class announcements and messages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				notes := a.state.Notifications()
				var b strings.Builder
				for _, n := range notes {
					fmt.Fprintf(&b, "%-38s %-8s %s  %s\n", n.ID, n.Type, n.Date, n.Title)
				}
				fmt.Fprintf(&b, "%d notices", len(notes))
				return a.out.Result(b.String(), notes)
			})
		},
	})

	var n record.Notification
	var typ string
	add := &cobra.Command{
		Use:   "add <title> [content]",
		Short: "Post a notice",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note := n
			note.Title = args[0]
			if len(args) == 2 {
				note.Content = args[1]
			}
			note.Type = record.NotificationType(typ)
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if u := a.state.CurrentUser(); u != nil && note.SenderName == "" {
					note.SenderName = u.FullName
				}
				r := a.disp.AddNotification(ctx, note)
				id := ""
				if r.Local == nil {
					id = a.state.Notifications()[0].ID
				}
				return a.finish(ctx, "posted notice", id, r)
			})
		},
	}
	add.Flags().StringVar(&typ, "type", string(record.NotifyInfo), "info|warning|urgent")
	add.Flags().StringVar(&n.Category, "category", "", "class|personal|message")
	add.Flags().StringVar(&n.SenderName, "sender", "", "sender name (default: signed-in user)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "deleted notice", args[0], a.disp.DeleteNotification(ctx, args[0]))
			})
		},
	})
	return cmd
}

// NewReviewsCommand creates the reviews command group.
func NewReviewsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Periodic comments on students",
	}

	var student string
	list := &cobra.Command{
		Use:   "list",
		Short: "List reviews, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				var reviews []record.Review
				for _, r := range a.state.Reviews() {
					if student == "" || r.StudentID == student {
						reviews = append(reviews, r)
					}
				}
				var b strings.Builder
				for _, r := range reviews {
					fmt.Fprintf(&b, "%-12s %-8s %-14s %s\n", r.StudentID, r.Type, r.PeriodName, r.Content)
				}
				fmt.Fprintf(&b, "%d reviews", len(reviews))
				return a.out.Result(b.String(), reviews)
			})
		},
	}
	list.Flags().StringVar(&student, "student", "", "only this student's reviews")
	cmd.AddCommand(list)

	var typ string
	add := &cobra.Command{
		Use:   "add <studentId> <period> <content>",
		Short: "Record a review; an existing one for the same period is replaced",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := record.Review{
				StudentID:  args[0],
				Type:       record.ReviewType(strings.ToUpper(typ)),
				PeriodName: args[1],
				Content:    args[2],
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "saved review", r.StudentID+"/"+r.PeriodName, a.disp.AddReview(ctx, r))
			})
		},
	}
	add.Flags().StringVar(&typ, "type", string(record.ReviewWeekly), "WEEKLY|MONTHLY|TERM")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "deleted review", args[0], a.disp.DeleteReview(ctx, args[0]))
			})
		},
	})
	return cmd
}
