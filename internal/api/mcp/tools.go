package mcp

// Tool represents an MCP tool definition
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema defines the JSON schema for tool input
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a property in the schema
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Default     any                 `json:"default,omitempty"`
}

// Tool names
const (
	ToolUpsert    = "upsert"
	ToolGetAnswer = "get_answer"
	ToolStatus    = "status"
)

var noArguments = InputSchema{Type: "object", Properties: map[string]Property{}}

// ChatbotTools defines all available MCP tools
var ChatbotTools = []Tool{
	{
		Name:        ToolUpsert,
		Description: "把配置的 CSV 文件向量化并写入向量库。任务在后台执行，立即返回。",
		InputSchema: noArguments,
	},
	{
		Name:        ToolGetAnswer,
		Description: "用配置的固定问题检索向量库并调用 LLM 回答，答案写入服务日志。任务在后台执行，立即返回。",
		InputSchema: noArguments,
	},
	{
		Name:        ToolStatus,
		Description: "查看每类任务最近一次的执行状态。",
		InputSchema: noArguments,
	},
}
