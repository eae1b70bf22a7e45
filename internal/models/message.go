package models

import "time"

// Conversation is the single message thread of a relationship
type Conversation struct {
	ID           string    `json:"id"`
	MentorshipID string    `json:"mentorshipId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Message belongs to a conversation. Only IsRead ever changes.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	MentorshipID   string          `json:"mentorshipId"`
	SenderID       string          `json:"senderId"`
	Content        string          `json:"content"`
	IsRead         bool            `json:"isRead"`
	CreatedAt      time.Time       `json:"createdAt"`
	Sender         *ProfileSummary `json:"sender,omitempty"`
}

// MessageList is the messaging read model
type MessageList struct {
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unreadCount"`
}

// SendMessageRequest is the body of a send. ID is optional; a client that
// sets it can retry the send without creating a duplicate.
type SendMessageRequest struct {
	ID      string `json:"id" binding:"omitempty,uuid"`
	Content string `json:"content" binding:"required,max=4000"`
}
