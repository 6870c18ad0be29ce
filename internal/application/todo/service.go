package todo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/minimalist-todo/api/internal/domain"
	"github.com/minimalist-todo/api/internal/pkg/id"
)

// attachmentURLTTL bounds how long a presigned download link stays valid.
const attachmentURLTTL = 15 * time.Minute

type Service interface {
	Create(ctx context.Context, email string, req domain.CreateTodoRequest) (*domain.Todo, error)
	List(ctx context.Context, email string) ([]domain.Todo, error)
	Get(ctx context.Context, email, todoID string) (*domain.Todo, error)
	Update(ctx context.Context, email, todoID string, req domain.UpdateTodoRequest) (*domain.Todo, error)
	Delete(ctx context.Context, email, todoID string) error
	Attach(ctx context.Context, email, todoID string, body io.Reader, contentType string) (*domain.Todo, error)
}

type todoStore interface {
	Put(ctx context.Context, t *domain.Todo) error
	Get(ctx context.Context, email, todoID string) (*domain.Todo, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Todo, error)
	Update(ctx context.Context, email, todoID string, updates map[string]interface{}) (*domain.Todo, error)
	Delete(ctx context.Context, email, todoID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	todos   todoStore
	objects objectStore
}

func NewService(todos todoStore, objects objectStore) Service {
	return &service{todos: todos, objects: objects}
}

func (s *service) Create(ctx context.Context, email string, req domain.CreateTodoRequest) (*domain.Todo, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("todo text must not be empty: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	t := &domain.Todo{
		TodoID:    id.New(),
		UserEmail: email,
		Text:      text,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.todos.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) List(ctx context.Context, email string) ([]domain.Todo, error) {
	todos, err := s.todos.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		s.resolveAttachment(ctx, &todos[i])
	}
	return todos, nil
}

func (s *service) Get(ctx context.Context, email, todoID string) (*domain.Todo, error) {
	t, err := s.todos.Get(ctx, email, todoID)
	if err != nil {
		return nil, err
	}
	s.resolveAttachment(ctx, t)
	return t, nil
}

func (s *service) Update(ctx context.Context, email, todoID string, req domain.UpdateTodoRequest) (*domain.Todo, error) {
	updates := make(map[string]interface{})
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			return nil, fmt.Errorf("todo text must not be empty: %w", domain.ErrBadRequest)
		}
		updates["text"] = text
	}
	if req.Completed != nil {
		updates["completed"] = *req.Completed
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadRequest)
	}

	t, err := s.todos.Update(ctx, email, todoID, updates)
	if err != nil {
		return nil, err
	}
	s.resolveAttachment(ctx, t)
	return t, nil
}

func (s *service) Delete(ctx context.Context, email, todoID string) error {
	t, err := s.todos.Get(ctx, email, todoID)
	if err != nil {
		return err
	}
	if err := s.todos.Delete(ctx, email, todoID); err != nil {
		return err
	}
	if t.AttachmentKey != "" {
		if err := s.objects.Delete(ctx, t.AttachmentKey); err != nil {
			// The todo itself is gone; losing the orphaned object is
			// acceptable, so log and move on.
			slog.Warn("failed to delete todo attachment", "key", t.AttachmentKey, "error", err)
		}
	}
	return nil
}

// Attach uploads the request body as the todo's attachment and records its
// object key. A second upload replaces the previous attachment.
func (s *service) Attach(ctx context.Context, email, todoID string, body io.Reader, contentType string) (*domain.Todo, error) {
	if _, err := s.todos.Get(ctx, email, todoID); err != nil {
		return nil, err
	}

	key := attachmentKey(email, todoID)
	if err := s.objects.Upload(ctx, key, body, contentType); err != nil {
		return nil, err
	}

	t, err := s.todos.Update(ctx, email, todoID, map[string]interface{}{
		"attachment_key": key,
	})
	if err != nil {
		return nil, err
	}
	s.resolveAttachment(ctx, t)
	return t, nil
}

// resolveAttachment fills AttachmentURL with a presigned link when the todo
// has an attachment. Presign failures only drop the link from the response.
func (s *service) resolveAttachment(ctx context.Context, t *domain.Todo) {
	if t.AttachmentKey == "" {
		return
	}
	url, err := s.objects.PresignedURL(ctx, t.AttachmentKey, attachmentURLTTL)
	if err != nil {
		slog.Warn("failed to presign attachment url", "key", t.AttachmentKey, "error", err)
		return
	}
	t.AttachmentURL = url
}

func attachmentKey(email, todoID string) string {
	return fmt.Sprintf("todos/%s/%s", email, todoID)
}
