package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/pkg/agent"
)

// FileSystemAgent simulates file operations and the mailbox
type FileSystemAgent struct {
	agent.Base
	deps Deps
}

// NewFileSystemAgent creates the filesystem agent
func NewFileSystemAgent(deps Deps) *FileSystemAgent {
	deps = deps.withDefaults()
	return &FileSystemAgent{
		Base: agent.NewBase("filesystem", []string{
			"read_emails",
			"file_operations",
			"directory_management",
		}, deps.Logger),
		deps: deps,
	}
}

// Execute runs a filesystem action
func (a *FileSystemAgent) Execute(ctx context.Context, action string, params agent.Params) (agent.Result, error) {
	var result agent.Result
	switch action {
	case "read_emails":
		result = a.readEmails(params)
	case "file_operation":
		result = a.fileOperation(params)
	default:
		result = agent.UnknownAction(action)
	}

	a.LogAction(action, result)
	return result, nil
}

func (a *FileSystemAgent) readEmails(params agent.Params) agent.Result {
	category := params.String("category", "all")
	now := a.deps.Now().Format(time.RFC3339)

	work := []map[string]interface{}{
		email("ceo@company.com", "Q3 Projections Review", now, true),
		email("team@tanoak.com", "Contract Review - Urgent", now, true),
	}
	personal := []map[string]interface{}{
		email("dentist@clinic.com", "Appointment Reminder", now, true),
		email("friend@email.com", "Weekend Plans", now, false),
	}

	var emails []map[string]interface{}
	switch category {
	case "work":
		emails = append(emails, work...)
	case "personal":
		emails = append(emails, personal...)
	default:
		emails = append(emails, work...)
		emails = append(emails, personal...)
	}

	filler := a.deps.between(10, 20)
	for i := 0; i < filler; i++ {
		emails = append(emails, email(
			fmt.Sprintf("sender%d@example.com", i),
			fmt.Sprintf("Email subject %d", i),
			now,
			a.deps.Rand.IntN(2) == 1,
		))
	}

	important := 0
	for _, e := range emails {
		if e["important"] == true {
			important++
		}
	}

	return agent.Result{
		"status":    "success",
		"emails":    emails,
		"count":     len(emails),
		"unread":    a.deps.between(5, 15),
		"important": important,
	}
}

func (a *FileSystemAgent) fileOperation(params agent.Params) agent.Result {
	operation := params.String("operation", "read")
	path := params.String("path", "/home/user/document.txt")

	switch operation {
	case "read":
		return agent.Result{
			"status":   "success",
			"content":  "File content would be here",
			"size":     1024,
			"modified": a.deps.Now().Format(time.RFC3339),
		}
	case "write":
		return agent.Result{
			"status":  "success",
			"message": fmt.Sprintf("File written to %s", path),
			"size":    len(params.String("content", "")),
		}
	default:
		return agent.Result{
			"status":  "error",
			"message": fmt.Sprintf("Unknown operation: %s", operation),
		}
	}
}

func email(from, subject, date string, important bool) map[string]interface{} {
	return map[string]interface{}{
		"from":      from,
		"subject":   subject,
		"date":      date,
		"important": important,
	}
}
