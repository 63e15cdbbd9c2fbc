package mq

import "time"

// RoutingKeyEmailImportant 重要邮件已入库事件
const RoutingKeyEmailImportant = "email.important"

// EmailImportantPayload 重要邮件事件的 payload
type EmailImportantPayload struct {
	EmailID     string    `json:"email_id"`
	Subject     string    `json:"subject"`
	Priority    int       `json:"priority"`
	Summary     string    `json:"summary"`
	ProcessedAt time.Time `json:"processed_at"`
}
