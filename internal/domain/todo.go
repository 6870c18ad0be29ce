package domain

import "time"

type Todo struct {
	TodoID        string    `json:"id" dynamodbav:"todo_id"`
	UserEmail     string    `json:"-" dynamodbav:"user_email"`
	Text          string    `json:"text" dynamodbav:"text"`
	Completed     bool      `json:"completed" dynamodbav:"completed"`
	AttachmentKey string    `json:"-" dynamodbav:"attachment_key,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty" dynamodbav:"-"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateTodoRequest struct {
	Text string `json:"text" validate:"required"`
}

type UpdateTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}
