package logging

import "strings"

// FormatSubject builds the task/stage subject string used in console output.
func FormatSubject(task, stage string) string {
	task = strings.TrimSpace(task)
	stage = strings.TrimSpace(stage)
	switch {
	case task != "" && stage != "":
		return "Task #" + task + " · " + stage
	case task != "":
		return "Task #" + task
	default:
		return stage
	}
}
