package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

type seedRequirement struct {
	text     string
	children []string
}

type seedComment struct {
	author string
	text   string
}

type seedTask struct {
	task         types.NewTask
	requirements []seedRequirement
	subtasks     []types.NewSubtask
	comments     []seedComment
}

func day(month time.Month, d int) *time.Time {
	t := time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func clock(s string) *string { return &s }

var sampleWorkspace = []seedTask{
	{
		task: types.NewTask{
			Title:       "Update landing page design",
			Description: "Redesign the hero section and improve the call-to-action buttons for better conversion rates.",
			Priority:    types.PriorityHigh,
			DueDate:     day(time.April, 20),
			DueTime:     clock("2:00 PM"),
			Project:     "Website Redesign",
			Group:       types.GroupToday,
		},
		requirements: []seedRequirement{
			{text: "Redesign hero section"},
			{text: "Improve CTA buttons"},
			{text: "Update color scheme"},
			{text: "Optimize for mobile"},
		},
		subtasks: []types.NewSubtask{
			{Text: "Sketch wireframes", Completed: true},
			{Text: "Create mockup in Figma"},
			{Text: "Get feedback from team"},
		},
		comments: []seedComment{
			{"James Wilson", "I've created a few sample designs, will share them in our next meeting."},
		},
	},
	{
		task: types.NewTask{
			Title:              "Setup Google Analytics integration",
			Description:        "Connect GA4 to our website and set up key conversion events and goals.",
			Priority:           types.PriorityUrgent,
			DueDate:            day(time.April, 20),
			DueTime:            clock("3:30 PM"),
			Project:            "Marketing Campaign",
			Group:              types.GroupToday,
			HasGoogleAnalytics: true,
		},
		requirements: []seedRequirement{
			{text: "Set up GA4 property"},
			{text: "Configure conversion events for:", children: []string{
				"Newsletter signups",
				"Contact form submissions",
				"Product page views",
				"Demo requests",
			}},
			{text: "Create custom dashboard for marketing team"},
			{text: "Document implementation for future reference"},
		},
		subtasks: []types.NewSubtask{
			{Text: "Set up GA4 property", Completed: true},
			{Text: "Configure basic events", Completed: true},
			{Text: "Create custom dashboard"},
			{Text: "Document implementation"},
		},
		comments: []seedComment{
			{"Sarah Chen", "I've prepared some documentation on our current analytics setup. You can find it in the shared Marketing folder."},
			{"Tom Wilson", "I can help with the dashboard creation once you've set up the basic events. Let me know when you're ready to collaborate on that part."},
		},
	},
	{
		task: types.NewTask{
			Title:       "Client meeting preparation",
			Description: "Prepare presentation slides and data reports for the quarterly review meeting.",
			Priority:    types.PriorityMedium,
			DueDate:     day(time.April, 21),
			DueTime:     clock("10:00 AM"),
			Project:     "Marketing Campaign",
			Group:       types.GroupTomorrow,
		},
		requirements: []seedRequirement{
			{text: "Prepare slides for quarterly review"},
			{text: "Gather data reports"},
			{text: "Rehearse presentation"},
		},
		subtasks: []types.NewSubtask{
			{Text: "Create presentation outline", Completed: true},
			{Text: "Design slides"},
			{Text: "Get performance data"},
			{Text: "Rehearse presentation"},
		},
	},
	{
		task: types.NewTask{
			Title:       "Test mobile app prototype",
			Description: "Review the latest prototype on iOS and Android devices, document any bugs or UX issues.",
			Priority:    types.PriorityMedium,
			DueDate:     day(time.April, 21),
			DueTime:     clock("2:00 PM"),
			Project:     "Mobile App Development",
			Group:       types.GroupTomorrow,
		},
		subtasks: []types.NewSubtask{
			{Text: "Test on iOS devices"},
			{Text: "Test on Android devices"},
			{Text: "Document UX issues"},
			{Text: "Submit bug report"},
		},
	},
	{
		task: types.NewTask{
			Title:       "Content calendar planning",
			Description: "Define content topics and schedule for the next month across all social media channels.",
			Priority:    types.PriorityLow,
			DueDate:     day(time.April, 23),
			DueTime:     clock("5:00 PM"),
			Project:     "Marketing Campaign",
			Group:       types.GroupLater,
		},
	},
	{
		task: types.NewTask{
			Title:       "Finalize Q2 budget",
			Description: "Review department expense requests and allocate the remaining budget for Q2 projects.",
			Priority:    types.PriorityHigh,
			DueDate:     day(time.April, 25),
			DueTime:     clock("3:00 PM"),
			Project:     "Finance",
			Group:       types.GroupLater,
		},
	},
}

// Seed fills an empty store with the sample workspace and reports how many
// tasks it created. A store that already holds tasks is left untouched.
func Seed(ctx context.Context, s types.Store) (int, error) {
	existing, err := s.GetAllTasks(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, st := range sampleWorkspace {
		task, err := s.CreateTask(ctx, st.task)
		if err != nil {
			return i, fmt.Errorf("seeding task %q: %w", st.task.Title, err)
		}
		if err := seedChildren(ctx, s, task.ID, st); err != nil {
			return i, fmt.Errorf("seeding task %q: %w", st.task.Title, err)
		}
	}
	return len(sampleWorkspace), nil
}

func seedChildren(ctx context.Context, s types.Store, taskID int64, st seedTask) error {
	for _, sub := range st.subtasks {
		sub.TaskID = taskID
		if _, err := s.CreateSubtask(ctx, sub); err != nil {
			return err
		}
	}
	for _, c := range st.comments {
		if _, err := s.CreateComment(ctx, types.NewComment{Author: c.author, Text: c.text, TaskID: taskID}); err != nil {
			return err
		}
	}
	for _, r := range st.requirements {
		parent, err := s.CreateRequirement(ctx, types.NewRequirement{Text: r.text, TaskID: taskID})
		if err != nil {
			return err
		}
		for _, child := range r.children {
			if _, err := s.CreateRequirement(ctx, types.NewRequirement{
				Text:     child,
				ParentID: &parent.ID,
				TaskID:   taskID,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
