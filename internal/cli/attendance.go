package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classbook/internal/record"
)

// NewAttendanceCommand creates the attendance command group.
func NewAttendanceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Record and show daily attendance",
	}

	var note string
	mark := &cobra.Command{
		Use:   "mark <date> <studentId=status[:note]>...",
		Short: "Save the attendance of one day",
		Long: `Save the attendance of one day, replacing what was recorded for that
date. Status is present, excused or unexcused.

Example:
  classbook attendance mark 2024-09-05 HS001=present HS002=excused:sốt`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseAttendance(args[0], args[1:])
			if err != nil {
				return err
			}
			day.Note = note
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.finish(ctx, "saved attendance", day.Date, a.disp.SaveAttendanceDay(ctx, day))
			})
		},
	}
	mark.Flags().StringVar(&note, "note", "", "note for the whole day")
	cmd.AddCommand(mark)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <date>",
		Short: "Show the attendance of one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				days := a.state.Attendance()
				i := slices.IndexFunc(days, func(d record.AttendanceDay) bool { return d.Date == args[0] })
				if i < 0 {
					return a.out.Result("no attendance recorded for "+args[0], (*record.AttendanceDay)(nil))
				}
				day := days[i]
				var b strings.Builder
				fmt.Fprintf(&b, "%s", day.Date)
				if day.Note != "" {
					fmt.Fprintf(&b, " (%s)", day.Note)
				}
				for _, r := range day.Records {
					fmt.Fprintf(&b, "\n  %-16s %-10s %s", r.StudentID, r.Status, r.Note)
				}
				return a.out.Result(b.String(), day)
			})
		},
	})
	return cmd
}

// parseAttendance builds a day from "id=status[:note]" arguments.
func parseAttendance(date string, marks []string) (record.AttendanceDay, error) {
	day := record.AttendanceDay{Date: date}
	for _, m := range marks {
		id, rest, ok := strings.Cut(m, "=")
		if !ok || id == "" || rest == "" {
			return record.AttendanceDay{}, usageError("bad mark %q: want studentId=status[:note]", m)
		}
		status, note, _ := strings.Cut(rest, ":")
		day.Records = append(day.Records, record.AttendanceRecord{
			StudentID: id,
			Status:    record.AttendanceStatus(status),
			Note:      note,
		})
	}
	return day, nil
}
