package models

// Object type discriminators used in response payloads.
const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
	ObjectChatCompletionFiles = "chat.completion.files"
)

// Message roles accepted on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model,omitempty"`
}

type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage carries whitespace word counts, an estimate rather than true
// tokenizer output.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CopilotMetadata struct {
	CLIVersion    string `json:"cli_version"`
	Model         string `json:"model"`
	WorkspaceUsed bool   `json:"workspace_used"`
}

type ChatResponse struct {
	ID              string          `json:"id"`
	Object          string          `json:"object"`
	Created         int64           `json:"created"`
	Model           string          `json:"model"`
	Choices         []Choice        `json:"choices"`
	Usage           Usage           `json:"usage"`
	Files           []WorkspaceFile `json:"files,omitempty"`
	FilesCount      int             `json:"files_count,omitempty"`
	WorkspaceID     string          `json:"workspace_id"`
	CopilotMetadata CopilotMetadata `json:"copilot_metadata"`
}

type Delta struct {
	Content string `json:"content"`
}

type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Choices []StreamChoice `json:"choices"`
}

// FilesChunk trails the content chunks on the stream when the CLI wrote
// files into the workspace.
type FilesChunk struct {
	ID         string          `json:"id"`
	Object     string          `json:"object"`
	Files      []WorkspaceFile `json:"files"`
	FilesCount int             `json:"files_count"`
}

// WorkspaceFile is one file collected from a request workspace.
// ContentText is nil for binary files.
type WorkspaceFile struct {
	Path          string  `json:"path"`
	Name          string  `json:"name"`
	Extension     string  `json:"extension"`
	Size          int64   `json:"size"`
	IsBinary      bool    `json:"is_binary"`
	MimeType      string  `json:"mime_type"`
	ContentBase64 string  `json:"content_base64"`
	ContentText   *string `json:"content_text"`
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
}

// ErrorResponse is the flat error envelope every endpoint uses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
