package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

// maxLine bounds a single exported task record.
const maxLine = 4 << 20

// Export writes every task as one JSON TaskDetail per line, in id order.
// It returns the number of tasks written.
func Export(ctx context.Context, s types.Store, w io.Writer) (int, error) {
	tasks, err := s.GetAllTasks(ctx)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	for i, t := range tasks {
		d, err := Detail(ctx, s, t.ID)
		if err != nil {
			return i, err
		}
		line, err := sonic.ConfigStd.Marshal(d)
		if err != nil {
			return i, fmt.Errorf("encoding task %d: %w", t.ID, err)
		}
		if _, err := bw.Write(line); err != nil {
			return i, fmt.Errorf("writing task %d: %w", t.ID, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return i, fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return len(tasks), fmt.Errorf("flushing export: %w", err)
	}
	return len(tasks), nil
}

// ExportFile writes the export to path atomically: the data goes to a temp
// file in the same directory, which is synced and then renamed over path.
func ExportFile(ctx context.Context, s types.Store, path string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (int, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, err
	}

	n, err := Export(ctx, s, tmp)
	if err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// Import reads an export stream and recreates each task with its children.
// Records get fresh ids; nested requirements are relinked to their new
// parents. Comment times are assigned anew by the store. Blank lines are
// skipped; a malformed or invalid line stops the import, names the line and
// leaves nothing of that line in the store. Earlier lines stay imported.
func Import(ctx context.Context, s types.Store, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var n, lineNo int
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var d types.TaskDetail
		if err := sonic.ConfigStd.Unmarshal(line, &d); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := importTask(ctx, s, d); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("reading import: %w", err)
	}
	return n, nil
}

// pendingTaskID stands in for the task id while a record is validated,
// before the task exists.
const pendingTaskID int64 = 1

// importRecord is a fully validated export line, ready to be written.
type importRecord struct {
	task         types.NewTask
	subtasks     []types.NewSubtask
	comments     []types.NewComment
	requirements []types.NewRequirement
	// parents[i] is the index in requirements of requirement i's parent,
	// or -1 for a top-level requirement.
	parents []int
}

// prepareImport validates a record and all of its children without
// touching the store. Every parentId must name a requirement that appears
// earlier in the same record.
func prepareImport(d types.TaskDetail) (*importRecord, error) {
	rec := &importRecord{
		task: types.NewTask{
			Title:              d.Title,
			Description:        d.Description,
			Priority:           d.Priority,
			Completed:          d.Completed,
			DueDate:            d.DueDate,
			DueTime:            d.DueTime,
			Project:            d.Project,
			Group:              d.Group,
			HasGoogleAnalytics: d.HasGoogleAnalytics,
		},
	}
	// Users are not part of the export.
	if err := rec.task.Validate(); err != nil {
		return nil, err
	}

	for i, sub := range d.Subtasks {
		in := types.NewSubtask{Text: sub.Text, Completed: sub.Completed, TaskID: pendingTaskID}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("subtask %d: %w", i+1, err)
		}
		rec.subtasks = append(rec.subtasks, in)
	}

	for i, c := range d.Comments {
		in := types.NewComment{Author: c.Author, Text: c.Text, TaskID: pendingTaskID}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("comment %d: %w", i+1, err)
		}
		rec.comments = append(rec.comments, in)
	}

	seen := make(map[int64]int, len(d.Requirements))
	for i, req := range d.Requirements {
		in := types.NewRequirement{Text: req.Text, TaskID: pendingTaskID}
		parent := -1
		if req.ParentID != nil {
			idx, ok := seen[*req.ParentID]
			if !ok {
				return nil, fmt.Errorf("requirement %d: %w", i+1,
					&types.ReferenceError{Field: "parentId", ID: *req.ParentID})
			}
			parent = idx
			placeholder := pendingTaskID
			in.ParentID = &placeholder
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("requirement %d: %w", i+1, err)
		}
		in.ParentID = nil
		seen[req.ID] = i
		rec.requirements = append(rec.requirements, in)
		rec.parents = append(rec.parents, parent)
	}
	return rec, nil
}

// importTask writes one record. A failure after the task exists deletes
// it again, and the cascade removes whatever children were written.
func importTask(ctx context.Context, s types.Store, d types.TaskDetail) error {
	rec, err := prepareImport(d)
	if err != nil {
		return err
	}
	task, err := s.CreateTask(ctx, rec.task)
	if err != nil {
		return err
	}
	if err := writeChildren(ctx, s, task.ID, rec); err != nil {
		if _, derr := s.DeleteTask(ctx, task.ID); derr != nil {
			return errors.Join(err, fmt.Errorf("rolling back task %d: %w", task.ID, derr))
		}
		return err
	}
	return nil
}

func writeChildren(ctx context.Context, s types.Store, taskID int64, rec *importRecord) error {
	for _, in := range rec.subtasks {
		in.TaskID = taskID
		if _, err := s.CreateSubtask(ctx, in); err != nil {
			return err
		}
	}
	for _, in := range rec.comments {
		in.TaskID = taskID
		if _, err := s.CreateComment(ctx, in); err != nil {
			return err
		}
	}
	ids := make([]int64, len(rec.requirements))
	for i, in := range rec.requirements {
		in.TaskID = taskID
		if p := rec.parents[i]; p >= 0 {
			parentID := ids[p]
			in.ParentID = &parentID
		}
		created, err := s.CreateRequirement(ctx, in)
		if err != nil {
			return err
		}
		ids[i] = created.ID
	}
	return nil
}

// ImportFile imports the export stored at path.
func ImportFile(ctx context.Context, s types.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Import(ctx, s, f)
}
