// Package shell is a line-oriented front-end that turns typed commands into
// controller operations and prints the resulting state.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/harrisonrobin/taskflow/pkg/controller"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/photos"
)

// Mirror is the calendar mirror, when configured.
type Mirror interface {
	SyncAll(ctx context.Context, tasks []model.Task) int
	RemoveTask(ctx context.Context, taskID string) error
}

// MirrorFunc opens the mirror on first use, since it may need to authorize.
type MirrorFunc func(ctx context.Context) (Mirror, error)

var errUsage = errors.New("usage")

type command struct {
	usage string
	run   func(ctx context.Context, args string) error
}

// Shell dispatches commands read from an input stream.
type Shell struct {
	ctrl     *controller.Controller
	photos   *photos.Manager
	store    *photos.Store
	out      io.Writer
	openMirr MirrorFunc
	mirror   Mirror
	commands map[string]command
}

// New creates a shell. store and openMirror may be nil.
func New(ctrl *controller.Controller, mgr *photos.Manager, store *photos.Store, openMirror MirrorFunc, out io.Writer) *Shell {
	s := &Shell{ctrl: ctrl, photos: mgr, store: store, openMirr: openMirror, out: out}
	s.commands = map[string]command{
		"login":    {"login <user> <password>", s.login},
		"logout":   {"logout", s.logout},
		"whoami":   {"whoami", s.whoami},
		"refresh":  {"refresh", s.refresh},
		"list":     {"list [all|pending|in_progress|done] [query...]", s.list},
		"sections": {"sections", s.sections},
		"show":     {"show <id>", s.show},
		"new":      {"new <title> | <description> [| <comment>]", s.create},
		"status":   {"status <id> <pending|in_progress|done>", s.status},
		"comment":  {"comment <id> <text>", s.comment},
		"edit":     {"edit <id> <title> | <description>", s.edit},
		"delete":   {"delete <id>", s.delete},
		"passwd":   {"passwd <new password>", s.passwd},
		"photo":    {"photo add <id> <file> | photo rm <id> <ref> | photo show <ref> [thumb]", s.photo},
		"mirror":   {"mirror", s.mirrorAll},
		"unmirror": {"unmirror <id>", s.unmirror},
		"help":     {"help", s.help},
	}
	return s
}

// Run reads commands until EOF or "quit".
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		if !s.Exec(ctx, scanner.Text()) {
			return nil
		}
		fmt.Fprint(s.out, "> ")
	}
	return scanner.Err()
}

// Exec runs one command line. It returns false when the shell should stop.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	name, args, _ := strings.Cut(line, " ")
	if name == "quit" || name == "exit" {
		return false
	}
	cmd, ok := s.commands[name]
	if !ok {
		fmt.Fprintf(s.out, "unknown command %q, try help\n", name)
		return true
	}
	if err := cmd.run(ctx, strings.TrimSpace(args)); errors.Is(err, errUsage) {
		fmt.Fprintf(s.out, "usage: %s\n", cmd.usage)
	}
	return true
}

// Controller errors are already reported through the ErrorFunc, so command
// handlers ignore them unless they need to decide what to print next.

func (s *Shell) login(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return errUsage
	}
	if err := s.ctrl.Login(ctx, fields[0], fields[1]); err != nil {
		return nil
	}
	sess, _ := s.ctrl.Session()
	fmt.Fprintf(s.out, "welcome %s (%d tasks)\n", sess.User.Name, len(s.ctrl.Tasks()))
	return nil
}

func (s *Shell) logout(ctx context.Context, _ string) error {
	s.ctrl.Logout(ctx)
	fmt.Fprintln(s.out, "logged out")
	return nil
}

func (s *Shell) whoami(context.Context, string) error {
	sess, ok := s.ctrl.Session()
	if !ok {
		fmt.Fprintln(s.out, "not logged in")
		return nil
	}
	fmt.Fprintf(s.out, "%s <%s> %s\n", sess.User.Name, sess.User.Email, sess.User.Role)
	return nil
}

func (s *Shell) refresh(ctx context.Context, _ string) error {
	if s.requireLogin() && s.ctrl.Refresh(ctx) == nil {
		s.printTasks(s.ctrl.Tasks())
	}
	return nil
}

func (s *Shell) list(_ context.Context, args string) error {
	if !s.requireLogin() {
		return nil
	}
	var status model.Status
	query := args
	if first, rest, _ := strings.Cut(args, " "); first != "" {
		if strings.EqualFold(first, "all") {
			query = rest
		} else if st, ok := model.ParseStatus(first); ok {
			status, query = st, rest
		}
	}
	s.printTasks(model.Filter(s.ctrl.Tasks(), status, query))
	return nil
}

func (s *Shell) sections(context.Context, string) error {
	if !s.requireLogin() {
		return nil
	}
	groups := model.GroupByStatus(s.ctrl.Tasks())
	for _, st := range model.Statuses {
		fmt.Fprintf(s.out, "== %s (%d)\n", st, len(groups[st]))
		s.printTasks(groups[st])
	}
	return nil
}

func (s *Shell) show(_ context.Context, args string) error {
	task, ok := s.task(args)
	if !ok {
		return nil
	}
	fmt.Fprintf(s.out, "id:          %s\n", task.ID)
	fmt.Fprintf(s.out, "title:       %s\n", task.Title)
	fmt.Fprintf(s.out, "description: %s\n", task.Description)
	fmt.Fprintf(s.out, "status:      %s\n", task.Status)
	fmt.Fprintf(s.out, "comment:     %s\n", task.Comment)
	if task.CreatedAt != nil {
		fmt.Fprintf(s.out, "created:     %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if task.FinishedAt != nil {
		fmt.Fprintf(s.out, "finished:    %s\n", task.FinishedAt.Local().Format("2006-01-02 15:04"))
	}
	for _, ref := range task.Photos {
		fmt.Fprintf(s.out, "photo:       %s\n", ref)
	}
	return nil
}

func (s *Shell) create(ctx context.Context, args string) error {
	parts := splitPipes(args)
	if len(parts) < 2 || len(parts) > 3 {
		return errUsage
	}
	comment := ""
	if len(parts) == 3 {
		comment = parts[2]
	}
	if s.requireLogin() && s.ctrl.Create(ctx, parts[0], parts[1], comment) == nil {
		fmt.Fprintln(s.out, "created")
	}
	return nil
}

func (s *Shell) status(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return errUsage
	}
	st, ok := model.ParseStatus(fields[1])
	if !ok {
		return errUsage
	}
	task, ok := s.task(fields[0])
	if !ok {
		return nil
	}
	task.Status = st
	if s.ctrl.Update(ctx, task) == nil {
		fmt.Fprintf(s.out, "%s is now %s\n", task.ID, st)
	}
	return nil
}

func (s *Shell) comment(ctx context.Context, args string) error {
	id, text, ok := strings.Cut(args, " ")
	if !ok {
		return errUsage
	}
	task, found := s.task(id)
	if !found {
		return nil
	}
	task.Comment = strings.TrimSpace(text)
	if s.ctrl.Update(ctx, task) == nil {
		fmt.Fprintln(s.out, "saved")
	}
	return nil
}

func (s *Shell) edit(ctx context.Context, args string) error {
	id, rest, ok := strings.Cut(args, " ")
	parts := splitPipes(rest)
	if !ok || len(parts) != 2 {
		return errUsage
	}
	task, found := s.task(id)
	if !found {
		return nil
	}
	task.Title, task.Description = parts[0], parts[1]
	if s.ctrl.Update(ctx, task) == nil {
		fmt.Fprintln(s.out, "saved")
	}
	return nil
}

func (s *Shell) delete(ctx context.Context, args string) error {
	if args == "" {
		return errUsage
	}
	if s.requireLogin() && s.ctrl.Delete(ctx, args) == nil {
		fmt.Fprintf(s.out, "deleted %s\n", args)
	}
	return nil
}

func (s *Shell) passwd(ctx context.Context, args string) error {
	if args == "" {
		return errUsage
	}
	if s.requireLogin() && s.ctrl.ChangePassword(ctx, args) == nil {
		fmt.Fprintln(s.out, "password changed")
	}
	return nil
}

func (s *Shell) photo(_ context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return errUsage
	}
	switch fields[0] {
	case "add":
		if len(fields) != 3 {
			return errUsage
		}
		task, ok := s.task(fields[1])
		if !ok {
			return nil
		}
		ref := fields[2]
		if s.store != nil {
			imported, err := s.store.Import(ref)
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
				return nil
			}
			ref = imported
		}
		task = s.photos.Attach(task, ref)
		fmt.Fprintf(s.out, "attached %s (%d photos)\n", ref, len(task.Photos))
	case "rm":
		if len(fields) != 3 {
			return errUsage
		}
		task, ok := s.task(fields[1])
		if !ok {
			return nil
		}
		task = s.photos.Detach(task, fields[2])
		fmt.Fprintf(s.out, "%d photos left\n", len(task.Photos))
	case "show":
		thumb := len(fields) > 2 && fields[2] == "thumb"
		img, ok := s.photos.Decode(fields[1], thumb)
		if !ok {
			fmt.Fprintln(s.out, "(no image)")
			return nil
		}
		b := img.Bounds()
		fmt.Fprintf(s.out, "%dx%d\n", b.Dx(), b.Dy())
	default:
		return errUsage
	}
	return nil
}

func (s *Shell) openMirror(ctx context.Context) (Mirror, bool) {
	if s.mirror != nil {
		return s.mirror, true
	}
	if s.openMirr == nil {
		fmt.Fprintln(s.out, "calendar mirror is not configured")
		return nil, false
	}
	m, err := s.openMirr(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return nil, false
	}
	s.mirror = m
	return m, true
}

func (s *Shell) mirrorAll(ctx context.Context, _ string) error {
	if !s.requireLogin() {
		return nil
	}
	m, ok := s.openMirror(ctx)
	if !ok {
		return nil
	}
	n := m.SyncAll(ctx, s.ctrl.Tasks())
	fmt.Fprintf(s.out, "mirrored %d tasks\n", n)
	return nil
}

func (s *Shell) unmirror(ctx context.Context, args string) error {
	if args == "" {
		return errUsage
	}
	m, ok := s.openMirror(ctx)
	if !ok {
		return nil
	}
	if err := m.RemoveTask(ctx, args); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return nil
	}
	fmt.Fprintf(s.out, "removed calendar event for %s\n", args)
	return nil
}

func (s *Shell) help(context.Context, string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "  %s\n", s.commands[name].usage)
	}
	fmt.Fprintln(s.out, "  quit")
	return nil
}

func (s *Shell) requireLogin() bool {
	if _, ok := s.ctrl.Session(); !ok {
		fmt.Fprintln(s.out, "not logged in")
		return false
	}
	return true
}

func (s *Shell) task(id string) (model.Task, bool) {
	if !s.requireLogin() {
		return model.Task{}, false
	}
	task, ok := s.ctrl.Task(strings.TrimSpace(id))
	if !ok {
		fmt.Fprintf(s.out, "no task %q\n", id)
	}
	return task, ok
}

func (s *Shell) printTasks(tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(s.out, "no tasks")
		return
	}
	for _, t := range tasks {
		suffix := ""
		if n := len(t.Photos); n > 0 {
			suffix = fmt.Sprintf(" [%d photos]", n)
		}
		fmt.Fprintf(s.out, "%-36s  %-11s  %s%s\n", t.ID, t.Status, t.Title, suffix)
	}
}

func splitPipes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
