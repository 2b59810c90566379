package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/workbench/pkg/store"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task ID %q", arg)
	}
	return id, nil
}

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List, inspect and change tasks",
	}
	cmd.AddCommand(
		newTaskListCmd(a),
		newTaskShowCmd(a),
		newTaskCreateCmd(a),
		newTaskDoneCmd(a),
		newTaskDeleteCmd(a),
	)
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var group, project string
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			tasks, err := s.GetAllTasks(cmd.Context())
			if err != nil {
				return err
			}
			filtered := make([]types.Task, 0, len(tasks))
			for _, t := range tasks {
				if group != "" && string(t.Group) != group {
					continue
				}
				if project != "" && !strings.EqualFold(t.Project, project) {
					continue
				}
				if pending && t.Completed {
					continue
				}
				filtered = append(filtered, t)
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), filtered)
			}
			if len(filtered) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskTable(filtered))
			stats := types.Summarize(tasks)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d tasks completed\n", stats.CompletedTasks, stats.TotalTasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "only tasks in this group (today, tomorrow, later)")
	cmd.Flags().StringVar(&project, "project", "", "only tasks in this project")
	cmd.Flags().BoolVar(&pending, "pending", false, "hide completed tasks")
	return cmd
}

func newTaskShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its subtasks, comments and requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := store.Detail(cmd.Context(), s, id)
			if errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("task %d not found", id)
			}
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), d)
			}
			printTaskDetail(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func newTaskCreateCmd(a *app) *cobra.Command {
	var (
		in       types.NewTask
		priority string
		group    string
		dueDate  string
		dueTime  string
		userID   int64
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			in.Priority = types.Priority(priority)
			in.Group = types.Group(group)
			if dueDate != "" {
				t, err := time.Parse(time.DateOnly, dueDate)
				if err != nil {
					return fmt.Errorf("invalid --due-date %q (expected YYYY-MM-DD)", dueDate)
				}
				in.DueDate = &t
			}
			if dueTime != "" {
				in.DueTime = &dueTime
			}
			if userID != 0 {
				in.UserID = &userID
			}
			if err := in.Validate(); err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			task, err := s.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %d\n", task.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Description, "description", "", "task description")
	f.StringVar(&in.Project, "project", "", "project name")
	f.StringVar(&priority, "priority", string(types.PriorityMedium), "low, medium, high or urgent")
	f.StringVar(&group, "group", string(types.GroupToday), "today, tomorrow or later")
	f.StringVar(&dueDate, "due-date", "", "due date as YYYY-MM-DD")
	f.StringVar(&dueTime, "due-time", "", "due time, free text such as \"2:00 PM\"")
	f.BoolVar(&in.HasGoogleAnalytics, "analytics", false, "mark the task as tracked by the analytics integration")
	f.Int64Var(&userID, "user", 0, "id of the owning user")
	return cmd
}

func newTaskDoneCmd(a *app) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			task, err := s.UpdateTask(cmd.Context(), id, types.TaskPatch{Completed: types.Some(!undo)})
			if errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("task %d not found", id)
			}
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d %s\n", task.ID, check(task.Completed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task not completed")
	return cmd
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			deleted, err := s.DeleteTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("task %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %d\n", id)
			return nil
		},
	}
}
