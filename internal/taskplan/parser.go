// Package taskplan extracts structured, phased task lists from free-form
// AI-generated specification text. Input is not guaranteed well-formed, so
// parsing is tolerant: anything that does not match the grammar is skipped.
package taskplan

import (
	"regexp"
	"strings"
)

// Task is one checklist item from a generated plan.
type Task struct {
	ID          string
	Description string
	Phase       string
	FilePath    string
	Completed   bool
}

// Plan is an ordered task list. FromFencedBlock reports whether the tasks
// came from an explicit ```tasks block or the whole-text fallback scan.
type Plan struct {
	Tasks           []Task
	FromFencedBlock bool
}

var (
	fenceOpenRe = regexp.MustCompile("(?i)^\\s*```+\\s*tasks\\b")
	fenceRe     = regexp.MustCompile("^\\s*```")
	phaseRe     = regexp.MustCompile(`^\s*##\s+(.+?)\s*$`)
	taskLineRe  = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s*(T\d+)\s*:\s*(.+)$`)
	filePartRe  = regexp.MustCompile(`(?i)^file\s*:\s*(.+)$`)
)

// ParseTasksFromSpec extracts the task list from generated text. The primary
// path parses a fenced block tagged "tasks", attributing phases from
// "## <phase>" headers. Without such a block, the whole text is scanned for
// task lines with no phase attribution.
func ParseTasksFromSpec(text string) Plan {
	lines := strings.Split(text, "\n")

	if body, ok := tasksBlock(lines); ok {
		return Plan{Tasks: parseLines(body, true), FromFencedBlock: true}
	}
	return Plan{Tasks: parseLines(lines, false)}
}

// tasksBlock returns the lines inside the first ```tasks fence, if present.
func tasksBlock(lines []string) ([]string, bool) {
	start := -1
	for i, line := range lines {
		if fenceOpenRe.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if fenceRe.MatchString(lines[i]) {
			end = i
			break
		}
	}
	return lines[start:end], true
}

func parseLines(lines []string, withPhases bool) []Task {
	var tasks []Task
	phase := ""

	for _, line := range lines {
		if withPhases {
			if m := phaseRe.FindStringSubmatch(line); m != nil {
				phase = strings.TrimSpace(m[1])
				continue
			}
		}

		m := taskLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		task := Task{
			ID:        m[2],
			Phase:     phase,
			Completed: m[1] != " ",
		}

		// The description may carry a "| File: <path>" suffix.
		desc := m[3]
		if idx := strings.Index(desc, "|"); idx >= 0 {
			rest := strings.TrimSpace(desc[idx+1:])
			if fm := filePartRe.FindStringSubmatch(rest); fm != nil {
				task.FilePath = strings.TrimSpace(fm[1])
				desc = desc[:idx]
			}
		}
		task.Description = strings.TrimSpace(desc)

		tasks = append(tasks, task)
	}
	return tasks
}

var specSignalRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)acceptance\s+criteria`),
	regexp.MustCompile(`(?i)technical\s+context`),
	regexp.MustCompile(`(?i)problem\s+statement`),
	regexp.MustCompile(`(?i)user\s+story`),
	regexp.MustCompile(`(?im)^\s*(?:#+\s*|\*{1,2})?goal\s*:`),
	regexp.MustCompile(`(?im)^\s*(?:#+\s*|\*{1,2})?solution\s*:`),
	regexp.MustCompile(`(?im)^\s*#+\s*implementation\s+plan`),
	regexp.MustCompile(`(?im)^\s*#+\s*(?:overview|summary)\b`),
}

// DetectSpecFallback reports whether text looks like a completed
// specification even without an explicit completion marker. It requires BOTH
// task structure (a tasks block or at least one task line) AND spec-like
// prose (a known heading or label, matched case-insensitively). Some
// backends omit the expected sentinel; this is a best-effort substitute,
// not a guarantee.
func DetectSpecFallback(text string) bool {
	return hasTaskStructure(text) && hasSpecProse(text)
}

func hasTaskStructure(text string) bool {
	lines := strings.Split(text, "\n")
	if _, ok := tasksBlock(lines); ok {
		return true
	}
	for _, line := range lines {
		if taskLineRe.MatchString(line) {
			return true
		}
	}
	return false
}

func hasSpecProse(text string) bool {
	for _, re := range specSignalRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
