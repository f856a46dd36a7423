package model

import "strings"

// Filter returns the tasks matching status and query, preserving order.
// An empty status matches every task; query is a case-insensitive substring
// of the title, description or comment.
func Filter(tasks []Task, status Status, query string) []Task {
	q := strings.ToLower(strings.TrimSpace(query))
	var filtered []Task
	for _, task := range tasks {
		if status != "" && task.Status != status {
			continue
		}
		if q != "" && !matches(task, q) {
			continue
		}
		filtered = append(filtered, task)
	}
	return filtered
}

func matches(task Task, q string) bool {
	for _, field := range []string{task.Title, task.Description, task.Comment} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// GroupByStatus splits tasks into per-status sections, in list order.
func GroupByStatus(tasks []Task) map[Status][]Task {
	groups := make(map[Status][]Task, len(Statuses))
	for _, task := range tasks {
		groups[task.Status] = append(groups[task.Status], task)
	}
	return groups
}
