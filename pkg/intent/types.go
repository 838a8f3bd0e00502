package intent

// Category is the coarse class a command is routed by
type Category string

const (
	CategoryEmail       Category = "email"
	CategoryTask        Category = "task"
	CategoryApplication Category = "application"
	CategoryHardware    Category = "hardware"
	CategoryFile        Category = "file"
	CategoryGeneral     Category = "general"
)

// ActionProcess is the action of the catch-all general intent
const ActionProcess = "process"

// Rule maps a regular expression to a category and action. Rules are
// evaluated in table order and the first hit wins.
type Rule struct {
	Category Category `json:"category" yaml:"category"`
	Pattern  string   `json:"pattern" yaml:"pattern"`
	Action   string   `json:"action" yaml:"action"`
}

// Intent is the classification of one command
type Intent struct {
	Category   Category `json:"category"`
	Action     string   `json:"action"`
	Target     string   `json:"target,omitempty"`
	Filter     string   `json:"filter,omitempty"`
	RawCommand string   `json:"raw_command"`
}

// General returns the catch-all intent for command
func General(command string) Intent {
	return Intent{
		Category:   CategoryGeneral,
		Action:     ActionProcess,
		RawCommand: command,
	}
}

// DefaultRules returns the built-in rule table
func DefaultRules() []Rule {
	return []Rule{
		{Category: CategoryEmail, Pattern: `read.*(email|mail)`, Action: "read_emails"},
		{Category: CategoryEmail, Pattern: `check.*(email|mail)`, Action: "read_emails"},
		{Category: CategoryEmail, Pattern: `show.*(email|mail)`, Action: "read_emails"},

		{Category: CategoryTask, Pattern: `create.*task.*list`, Action: "create_task_list"},
		{Category: CategoryTask, Pattern: `make.*todo`, Action: "create_task_list"},
		{Category: CategoryTask, Pattern: `generate.*tasks`, Action: "create_task_list"},

		{Category: CategoryApplication, Pattern: `open\s+(\w+)`, Action: "open_application"},
		{Category: CategoryApplication, Pattern: `launch\s+(\w+)`, Action: "open_application"},
		{Category: CategoryApplication, Pattern: `start\s+(\w+)`, Action: "open_application"},

		{Category: CategoryHardware, Pattern: `optimize.*for\s+(\w+)`, Action: "optimize_hardware"},
		{Category: CategoryHardware, Pattern: `configure.*for\s+(\w+)`, Action: "optimize_hardware"},
		{Category: CategoryHardware, Pattern: `tune.*for\s+(\w+)`, Action: "optimize_hardware"},

		{Category: CategoryFile, Pattern: `create.*file`, Action: "file_operation"},
		{Category: CategoryFile, Pattern: `read.*file`, Action: "file_operation"},
		{Category: CategoryFile, Pattern: `save.*file`, Action: "file_operation"},
	}
}
