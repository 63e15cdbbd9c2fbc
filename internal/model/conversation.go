package model

// ConversationTurn is one (input, output) pair in the conversation log.
type ConversationTurn struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}
