package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/record"
)

// NewStudentsCommand creates the students command group.
func NewStudentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List and change students",
	}
	cmd.AddCommand(newStudentsListCommand(opts))
	cmd.AddCommand(newStudentsAddCommand(opts))
	cmd.AddCommand(newStudentsImportCommand(opts))
	cmd.AddCommand(newStudentsDeleteCommand(opts))
	cmd.AddCommand(newStudentsClearCommand(opts))
	return cmd
}

func newStudentsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				students := a.state.Students()
				var b strings.Builder
				for _, s := range students {
					fmt.Fprintf(&b, "%-16s %-28s %-10s %s\n", s.ID, s.FullName, s.DateOfBirth, s.Status)
				}
				fmt.Fprintf(&b, "%d students", len(students))
				return a.out.Result(b.String(), students)
			})
		},
	}
}

type studentFlags struct {
	id, nationalID, gender, dob, address, parentName, parentPhone string
}

func newStudentsAddCommand(opts *RootOptions) *cobra.Command {
	var f studentFlags
	cmd := &cobra.Command{
		Use:   "add <full name>",
		Short: "Add one student",
		Long: `Add one student. Without --id the id is derived from the national id
(HS + national id), or generated when there is none.

Example:
  classbook students add "Trần Thị Bích" --dob 2010-03-14 --cccd 079201000777`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s := record.Student{
					ID:          f.id,
					FullName:    args[0],
					NationalID:  f.nationalID,
					Gender:      f.gender,
					DateOfBirth: f.dob,
					Address:     f.address,
					ParentName:  f.parentName,
					ParentPhone: f.parentPhone,
				}
				before := len(a.state.Students())
				r := a.disp.AddStudent(ctx, s)
				id := ""
				if r.Local == nil {
					id = a.state.Students()[before].ID
				}
				return a.finish(ctx, "added student", id, r)
			})
		},
	}
	cmd.Flags().StringVar(&f.id, "id", "", "student id")
	cmd.Flags().StringVar(&f.nationalID, "cccd", "", "national id")
	cmd.Flags().StringVar(&f.gender, "gender", "", "gender")
	cmd.Flags().StringVar(&f.dob, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.address, "address", "", "address")
	cmd.Flags().StringVar(&f.parentName, "parent", "", "parent name")
	cmd.Flags().StringVar(&f.parentPhone, "phone", "", "parent phone")
	return cmd
}

func newStudentsImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add students from a YAML file",
		Long: `Add every student listed in a YAML file. The file holds either a list
of students or a mapping with a "students" list. Remote pushes are sent in
small chunks to stay within the endpoint's quota.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := LoadStudents(args[0])
			if err != nil {
				out := formatterFor(cmd, opts)
				_ = out.Error(ErrCodeImport, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read import file", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				r := a.disp.AddStudents(ctx, students)
				return a.finish(ctx, fmt.Sprintf("imported %d students", len(students)), "", r)
			})
		},
	}
}

func newStudentsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "deleted student", args[0], a.disp.DeleteStudent(ctx, args[0]))
			})
		},
	}
}

func newStudentsClearCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageError("refusing to delete every student without --yes")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				n := len(a.state.Students())
				return a.finish(ctx, fmt.Sprintf("deleted %d students", n), "", a.disp.ClearStudents(ctx))
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every student")
	return cmd
}
