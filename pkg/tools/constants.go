package tools

// Tool name constants - use these instead of magic strings to prevent
// typos and enable compile-time checking.
const (
	ToolWriteFile = "write_file"
	ToolReadFile  = "read_file"
	ToolListFiles = "list_files"
	ToolComplete  = "complete"
	ToolSpeak     = "speak"
)

// ExecutorTools lists the tools available to the constrained executor.
//
//nolint:gochecknoglobals // Fixed tool set.
var ExecutorTools = []string{
	ToolWriteFile,
	ToolReadFile,
	ToolListFiles,
	ToolComplete,
	ToolSpeak,
}
