package reminder

import (
	"fmt"
	"strings"

	"github.com/tgifai/reminder/internal/consts"
)

const commandName = consts.DefaultCommandName

// FormatConfirmation is the reply after a successful registration.
func FormatConfirmation(it Item) string {
	rule, _ := it.Rule()
	title := "Reminder set"
	if it.IsTask {
		title = "Task set"
	}
	return fmt.Sprintf("%s:\nContent: %s\nTime: %s\nRepeat: %s\n\nUse /%s ls to see all reminders and tasks",
		title, it.Text, it.DateTime, rule.Describe(), commandName)
}

// FormatList renders key's items split into reminders and tasks. Numbers are
// stored positions so they can be passed straight to delete.
func FormatList(items []Item) string {
	if len(items) == 0 {
		return "No reminders or tasks are set."
	}

	var reminders, tasks []string
	for i, it := range items {
		line := formatLine(i+1, it)
		if it.IsTask {
			tasks = append(tasks, line)
		} else {
			reminders = append(reminders, line)
		}
	}

	var b strings.Builder
	b.WriteString("Current reminders and tasks:\n")
	if len(reminders) > 0 {
		b.WriteString("\nReminders:\n")
		b.WriteString(strings.Join(reminders, "\n"))
		b.WriteString("\n")
	}
	if len(tasks) > 0 {
		b.WriteString("\nTasks:\n")
		b.WriteString(strings.Join(tasks, "\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nUse /%s rm <number> to delete", commandName)
	return b.String()
}

func formatLine(n int, it Item) string {
	rule, err := it.Rule()
	desc := it.Repeat
	if err == nil {
		desc = rule.Describe()
	}
	return fmt.Sprintf("%d. %s - %s (%s)", n, it.Text, it.DateTime, desc)
}

// FormatDeleted summarizes removed items.
func FormatDeleted(items []Item) string {
	switch len(items) {
	case 0:
		return "Nothing was deleted."
	case 1:
		return fmt.Sprintf("Deleted %s: %s", items[0].Kind(), items[0].Text)
	}

	var reminders, tasks []string
	for _, it := range items {
		if it.IsTask {
			tasks = append(tasks, "- "+it.Text)
		} else {
			reminders = append(reminders, "- "+it.Text)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Deleted %d items:", len(items))
	if len(reminders) > 0 {
		fmt.Fprintf(&b, "\n\nReminders:\n%s", strings.Join(reminders, "\n"))
	}
	if len(tasks) > 0 {
		fmt.Fprintf(&b, "\n\nTasks:\n%s", strings.Join(tasks, "\n"))
	}
	return b.String()
}

// FormatNoMatch explains which conditions found nothing.
func FormatNoMatch(f DeleteFilter) string {
	return fmt.Sprintf("No reminders or tasks match: %s", f.Describe())
}
