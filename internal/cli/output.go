package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	doneStyle   = cellStyle.Faint(true)

	priorityColors = map[types.Priority]lipgloss.Color{
		types.PriorityUrgent: lipgloss.Color("9"),
		types.PriorityHigh:   lipgloss.Color("208"),
		types.PriorityMedium: lipgloss.Color("11"),
		types.PriorityLow:    lipgloss.Color("8"),
	}
)

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatDue(t types.Task) string {
	var s string
	if t.DueDate != nil {
		s = t.DueDate.Format(dateLayout)
	}
	if t.DueTime != nil {
		if s != "" {
			s += " "
		}
		s += *t.DueTime
	}
	return s
}

// taskTable renders tasks one per row. Completed tasks are dimmed.
func taskTable(tasks []types.Task) string {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			strconv.FormatInt(t.ID, 10),
			check(t.Completed),
			string(t.Priority),
			string(t.Group),
			t.Project,
			t.Title,
			formatDue(t),
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DONE", "PRIORITY", "GROUP", "PROJECT", "TITLE", "DUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			t := tasks[row]
			if t.Completed {
				return doneStyle
			}
			if col == 2 {
				return cellStyle.Foreground(priorityColors[t.Priority])
			}
			return cellStyle
		}).
		String()
}

func printTaskDetail(w io.Writer, d *types.TaskDetail) {
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("#%d %s", d.ID, d.Title))
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "  %s %s · %s · %s\n", check(d.Completed), d.Priority, d.Group, d.Project)
	if due := formatDue(d.Task); due != "" {
		fmt.Fprintf(w, "  due %s\n", due)
	}
	fmt.Fprintf(w, "  created %s\n", d.CreatedAt.Local().Format(timeLayout))
	if d.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", d.Description)
	}

	if len(d.Requirements) > 0 {
		fmt.Fprintln(w, "\nRequirements")
		printRequirements(w, d.Requirements, nil, 1)
	}
	if len(d.Subtasks) > 0 {
		fmt.Fprintln(w, "\nSubtasks")
		for _, s := range d.Subtasks {
			fmt.Fprintf(w, "  %s %s (#%d)\n", check(s.Completed), s.Text, s.ID)
		}
	}
	if len(d.Comments) > 0 {
		fmt.Fprintln(w, "\nComments")
		for _, c := range d.Comments {
			fmt.Fprintf(w, "  %s, %s: %s\n", c.Author, c.Time.Local().Format(timeLayout), c.Text)
		}
	}
}

// printRequirements prints the requirement tree below parent, indenting
// each level.
func printRequirements(w io.Writer, reqs []types.Requirement, parent *int64, depth int) {
	for _, r := range reqs {
		if !sameParent(r.ParentID, parent) {
			continue
		}
		fmt.Fprintf(w, "%*s- %s\n", depth*2, "", r.Text)
		id := r.ID
		printRequirements(w, reqs, &id, depth+1)
	}
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
