package types

// OutputFormat selects how command results are rendered
type OutputFormat string

const (
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	OutputFormat OutputFormat
	Quiet        bool
	Verbose      bool
	Debug        bool
	Config       string
	LogFile      string
	DryRun       bool
	JSON         bool
}

// CLIOutput is the stable JSON envelope emitted by every command
type CLIOutput struct {
	SchemaVersion string       `json:"schemaVersion"`
	TraceID       string       `json:"traceId"`
	Command       string       `json:"command"`
	Data          interface{}  `json:"data"`
	Warnings      []CLIWarning `json:"warnings"`
	Errors        []CLIError   `json:"errors"`
}

// CLIError is a tool-owned error with a stable code
type CLIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"httpStatus,omitempty"`
	Retryable  bool                   `json:"retryable,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// CLIWarning is a non-fatal notice attached to command output
type CLIWarning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// TableRenderer lets result types describe their own table layout
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
	EmptyMessage() string
}

// TableRenderable is implemented by results that can produce a TableRenderer
type TableRenderable interface {
	AsTableRenderer() TableRenderer
}
