package socket

// Message represents a command sent to the running zcode instance
type Message struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`

	// ResponseChan is set by the server for synchronous commands; the
	// handler must send exactly one response on it
	ResponseChan chan *Response `json:"-"`
}

// Status is the instance summary returned by the status command
type Status struct {
	Mode     string `json:"mode"`
	Provider string `json:"provider,omitempty"`
	Pending  int    `json:"pending_hunks"`
	Accepted int    `json:"accepted_hunks"`
	Total    int    `json:"total_hunks"`
}

// Response represents the response from the server
type Response struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Status  *Status `json:"status,omitempty"`
}

// Command types
const (
	// CommandSubmitPrompt queues Text as a prompt for the selected provider
	CommandSubmitPrompt = "submit_prompt"
	// CommandStatus reports the current mode and review counts
	CommandStatus = "status"
)

// synchronous reports whether the client waits for the handler's answer
func synchronous(command string) bool {
	return command == CommandStatus
}
