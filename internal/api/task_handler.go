package api

import (
	"net/http"

	"github.com/taskboard/taskboard-api/internal/api/shared"
	"github.com/taskboard/taskboard-api/internal/service"
)

// TaskHandler handles task CRUD API requests. All task routes sit behind
// the auth middleware, so an absent user ID in context is a server fault.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List handles GET /api/tasks with page and page_size query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	page := getPageRequest(r)

	result, err := h.taskService.ListTasks(r.Context(), page)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PaginatedResponse{
		Data:       result.Tasks,
		Pagination: NewPagination(page.Page, page.PageSize, result.Total),
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	task, err := h.taskService.GetTask(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Create handles POST /api/tasks. The acting user becomes the creator.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication context missing")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	intent, err := req.ToIntent()
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), actorID, intent)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// Update handles PUT /api/tasks/{id}. Omitted fields keep their stored
// values; assigned_to_id distinguishes omitted from an explicit null.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	intent, err := req.ToIntent()
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), id, intent)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}. Only the creator may delete.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication context missing")
		return
	}

	id, err := getPathUUID(r, "id")
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), actorID, id); err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusNoContent, nil)
}
