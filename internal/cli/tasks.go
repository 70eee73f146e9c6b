package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdxmph/scheduler-tui/internal/auth"
	"github.com/pdxmph/scheduler-tui/internal/progression"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
)

func (a *app) signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password, err := a.credentials()
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd.Context(), cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer s.close()

			user, err := s.auth.SignUp(cmd.Context(), email, password)
			if err != nil {
				return errors.New(auth.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Account created: %s\n", user.Email)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var (
		title       string
		start       string
		end         string
		category    string
		date        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Long:  `Add a task to a day. Times are 24-hour HH:MM; the date defaults to today.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, ok := schedule.LookupCategory(category)
			if !ok {
				return fmt.Errorf("unknown category %q", category)
			}

			s, err := a.openSession(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer s.close()

			if date == "" {
				date = schedule.DateKey(time.Now())
			}
			task, err := s.planner.AddTask(date, schedule.Draft{
				Title:       title,
				StartTime:   start,
				EndTime:     end,
				Category:    cat,
				Description: description,
			})
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Task created: %s\n", task.ID)
			fmt.Fprintf(out, "  %s %s-%s %s (%s)\n", task.Date, task.StartTime, task.EndTime, task.Title, task.Category)
			if task.Description != "" {
				fmt.Fprintf(out, "  %s\n", task.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Task title (required)")
	cmd.Flags().StringVarP(&start, "start", "s", "", "Start time HH:MM (required)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "End time HH:MM (required)")
	cmd.Flags().StringVarP(&category, "category", "c", string(schedule.Work), "Category: work, personal, health, learning, social, break")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	for _, name := range []string{"title", "start", "end"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("Failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		date string
		week bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for a day or a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				var err error
				if day, err = schedule.ParseDate(date); err != nil {
					return err
				}
			}

			s, err := a.openSession(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer s.close()

			days := []time.Time{day}
			if week {
				days = schedule.WeekFrom(day).Days()
			}

			out := cmd.OutOrStdout()
			for _, d := range days {
				key := schedule.DateKey(d)
				tasks := s.planner.TasksFor(key)
				if week && len(tasks) == 0 {
					continue
				}
				printDay(out, d, tasks)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVarP(&week, "week", "w", false, "List seven days starting at the date")
	return cmd
}

func printDay(out io.Writer, day time.Time, tasks []schedule.Task) {
	fmt.Fprintf(out, "%s (%d open)\n", day.Format("Mon 2006-01-02"), countOpen(tasks))
	if len(tasks) == 0 {
		fmt.Fprintln(out, "  No tasks")
		return
	}
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(out, "  %s %s-%s  %-30s %-9s %s\n", check, t.StartTime, t.EndTime, t.Title, t.Category, t.ID)
	}
}

func countOpen(tasks []schedule.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Mark a task done, or open again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer s.close()

			before := s.planner.Snapshot()
			task, err := s.planner.ToggleTask(args[0])
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}

			after := s.planner.Snapshot()
			out := cmd.OutOrStdout()
			if task.Completed {
				fmt.Fprintf(out, "✓ Completed: %s (+%d XP)\n", task.Title, after.Progress.XP-before.Progress.XP)
			} else {
				fmt.Fprintf(out, "○ Reopened: %s (%d XP)\n", task.Title, after.Progress.XP-before.Progress.XP)
			}
			if after.Progress.Level > before.Progress.Level {
				fmt.Fprintf(out, "★ Level up! You reached level %d\n", after.Progress.Level)
			}
			if progression.TierRank(after.Progress.Level) > progression.TierRank(before.Progress.Level) {
				fmt.Fprintf(out, "◆ Rank up! You are now %s, %s\n", after.Tier.Name, after.Tier.Title)
			}
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer s.close()

			task, ok := s.planner.Task(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, args[0])
			}
			if err := s.planner.DeleteTask(task.ID); err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted: %s\n", task.Title)
			return nil
		},
	}
}
