package todo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minimalist-todo/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTodoStore struct {
	mock.Mock
}

func (m *mockTodoStore) Put(ctx context.Context, t *domain.Todo) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTodoStore) Get(ctx context.Context, email, todoID string) (*domain.Todo, error) {
	args := m.Called(ctx, email, todoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Todo), args.Error(1)
}

func (m *mockTodoStore) ListByEmail(ctx context.Context, email string) ([]domain.Todo, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Todo), args.Error(1)
}

func (m *mockTodoStore) Update(ctx context.Context, email, todoID string, updates map[string]interface{}) (*domain.Todo, error) {
	args := m.Called(ctx, email, todoID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Todo), args.Error(1)
}

func (m *mockTodoStore) Delete(ctx context.Context, email, todoID string) error {
	args := m.Called(ctx, email, todoID)
	return args.Error(0)
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	args := m.Called(ctx, key, r, contentType)
	return args.Error(0)
}

func (m *mockObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestService_Create(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	var created *domain.Todo
	todos.On("Put", mock.Anything, mock.AnythingOfType("*domain.Todo")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Todo) }).
		Return(nil)

	got, err := svc.Create(context.Background(), "a@example.com", domain.CreateTodoRequest{Text: "  buy milk  "})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "buy milk", created.Text)
	assert.Equal(t, "a@example.com", created.UserEmail)
	assert.NotEmpty(t, created.TodoID)
	assert.False(t, created.Completed)
	assert.Equal(t, created, got)
	todos.AssertExpectations(t)
}

func TestService_Create_EmptyText(t *testing.T) {
	todos := new(mockTodoStore)
	svc := NewService(todos, new(mockObjectStore))

	_, err := svc.Create(context.Background(), "a@example.com", domain.CreateTodoRequest{Text: "   "})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	todos.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestService_List_ResolvesAttachments(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	todos.On("ListByEmail", mock.Anything, "a@example.com").Return([]domain.Todo{
		{TodoID: "t1", Text: "plain"},
		{TodoID: "t2", Text: "with file", AttachmentKey: "todos/a@example.com/t2"},
	}, nil)
	objects.On("PresignedURL", mock.Anything, "todos/a@example.com/t2", attachmentURLTTL).
		Return("https://signed.example/t2", nil)

	got, err := svc.List(context.Background(), "a@example.com")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].AttachmentURL)
	assert.Equal(t, "https://signed.example/t2", got[1].AttachmentURL)
	objects.AssertExpectations(t)
}

func TestService_List_PresignFailureDropsURL(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	todos.On("ListByEmail", mock.Anything, "a@example.com").Return([]domain.Todo{
		{TodoID: "t1", AttachmentKey: "todos/a@example.com/t1"},
	}, nil)
	objects.On("PresignedURL", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("s3 down"))

	got, err := svc.List(context.Background(), "a@example.com")

	require.NoError(t, err)
	assert.Empty(t, got[0].AttachmentURL)
}

func TestService_Update(t *testing.T) {
	todos := new(mockTodoStore)
	svc := NewService(todos, new(mockObjectStore))

	text := " done deal "
	completed := true
	updated := &domain.Todo{TodoID: "t1", Text: "done deal", Completed: true}
	todos.On("Update", mock.Anything, "a@example.com", "t1",
		map[string]interface{}{"text": "done deal", "completed": true}).
		Return(updated, nil)

	got, err := svc.Update(context.Background(), "a@example.com", "t1",
		domain.UpdateTodoRequest{Text: &text, Completed: &completed})

	require.NoError(t, err)
	assert.Equal(t, updated, got)
	todos.AssertExpectations(t)
}

func TestService_Update_EmptyText(t *testing.T) {
	todos := new(mockTodoStore)
	svc := NewService(todos, new(mockObjectStore))

	text := "  "
	_, err := svc.Update(context.Background(), "a@example.com", "t1", domain.UpdateTodoRequest{Text: &text})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	todos.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Update_NoFields(t *testing.T) {
	svc := NewService(new(mockTodoStore), new(mockObjectStore))

	_, err := svc.Update(context.Background(), "a@example.com", "t1", domain.UpdateTodoRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestService_Update_NotFound(t *testing.T) {
	todos := new(mockTodoStore)
	svc := NewService(todos, new(mockObjectStore))

	completed := true
	todos.On("Update", mock.Anything, "a@example.com", "missing", mock.Anything).
		Return(nil, domain.ErrNotFound)

	_, err := svc.Update(context.Background(), "a@example.com", "missing", domain.UpdateTodoRequest{Completed: &completed})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestService_Delete_RemovesAttachment(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	todos.On("Get", mock.Anything, "a@example.com", "t1").
		Return(&domain.Todo{TodoID: "t1", AttachmentKey: "todos/a@example.com/t1"}, nil)
	todos.On("Delete", mock.Anything, "a@example.com", "t1").Return(nil)
	objects.On("Delete", mock.Anything, "todos/a@example.com/t1").Return(nil)

	err := svc.Delete(context.Background(), "a@example.com", "t1")

	require.NoError(t, err)
	objects.AssertExpectations(t)
}

func TestService_Delete_NoAttachment(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	todos.On("Get", mock.Anything, "a@example.com", "t1").
		Return(&domain.Todo{TodoID: "t1"}, nil)
	todos.On("Delete", mock.Anything, "a@example.com", "t1").Return(nil)

	err := svc.Delete(context.Background(), "a@example.com", "t1")

	require.NoError(t, err)
	objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestService_Attach(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	body := strings.NewReader("file contents")
	key := "todos/a@example.com/t1"

	todos.On("Get", mock.Anything, "a@example.com", "t1").
		Return(&domain.Todo{TodoID: "t1"}, nil)
	objects.On("Upload", mock.Anything, key, body, "image/png").Return(nil)
	todos.On("Update", mock.Anything, "a@example.com", "t1",
		map[string]interface{}{"attachment_key": key}).
		Return(&domain.Todo{TodoID: "t1", AttachmentKey: key}, nil)
	objects.On("PresignedURL", mock.Anything, key, attachmentURLTTL).
		Return("https://signed.example/t1", nil)

	got, err := svc.Attach(context.Background(), "a@example.com", "t1", body, "image/png")

	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/t1", got.AttachmentURL)
	todos.AssertExpectations(t)
	objects.AssertExpectations(t)
}

func TestService_Attach_TodoNotFound(t *testing.T) {
	todos := new(mockTodoStore)
	objects := new(mockObjectStore)
	svc := NewService(todos, objects)

	todos.On("Get", mock.Anything, "a@example.com", "missing").
		Return(nil, domain.ErrNotFound)

	_, err := svc.Attach(context.Background(), "a@example.com", "missing", strings.NewReader("x"), "text/plain")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	objects.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
