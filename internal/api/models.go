package api

import (
	"github.com/google/uuid"

	"github.com/taskboard/taskboard-api/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CreateUserRequest defines the payload for user creation.
type CreateUserRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ToIntent converts the request into a domain create intent.
func (r CreateUserRequest) ToIntent() (domain.UserCreateIntent, error) {
	return domain.NewUserCreateIntent(r.Name, r.Email)
}

// UpdateUserRequest defines the payload for user updates. Email is
// immutable and deliberately absent.
type UpdateUserRequest struct {
	Name string `json:"name" validate:"required"`
}

// ToIntent converts the request into a domain update intent.
func (r UpdateUserRequest) ToIntent() (domain.UserUpdateIntent, error) {
	return domain.NewUserUpdateIntent(r.Name)
}

// CreateTaskRequest defines the payload for task creation.
type CreateTaskRequest struct {
	Title        string     `json:"title"       validate:"required"`
	Description  string     `json:"description" validate:"required"`
	AssignedToID *uuid.UUID `json:"assigned_to_id" validate:"omitempty"`
}

// ToIntent converts the request into a domain create intent.
func (r CreateTaskRequest) ToIntent() (domain.TaskCreateIntent, error) {
	return domain.NewTaskCreateIntent(r.Title, r.Description, r.AssignedToID)
}

// UpdateTaskRequest defines the payload for task updates. Every field is
// optional; omitted fields keep their stored values. AssignedToID
// distinguishes omitted from cleared: absent leaves the assignee alone,
// JSON null (or "") clears it, and a UUID reassigns.
type UpdateTaskRequest struct {
	Title        *string           `json:"title"`
	Description  *string           `json:"description"`
	Status       *string           `json:"status"`
	AssignedToID domain.OptionalID `json:"assigned_to_id"`
}

// ToIntent converts the request into a domain update intent, parsing the
// status when one was sent.
func (r UpdateTaskRequest) ToIntent() (domain.TaskUpdateIntent, error) {
	intent := domain.TaskUpdateIntent{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedToID,
	}
	if r.Status != nil {
		status, err := domain.ParseTaskStatus(*r.Status)
		if err != nil {
			return domain.TaskUpdateIntent{}, err
		}
		intent.Status = &status
	}
	return intent, nil
}

// Pagination describes the page position within a collection response.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	NextPage   *int `json:"next_page"`
	PrevPage   *int `json:"prev_page"`
}

// PaginatedResponse wraps a page of items with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// NewPagination computes pagination metadata. TotalPages is zero for an
// empty collection; NextPage and PrevPage are null at the edges.
func NewPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	p := Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
	if page < totalPages {
		next := page + 1
		p.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}
