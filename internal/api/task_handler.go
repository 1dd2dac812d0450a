package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/api/middleware"
	"github.com/taskline/taskline-api/internal/api/shared"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/service"
	"github.com/taskline/taskline-api/internal/store"
)

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Title                 string     `json:"title"                   validate:"required,min=1,max=500"`
	Description           string     `json:"description"             validate:"max=5000"`
	Priority              string     `json:"priority"                validate:"omitempty,oneof=high medium low none"`
	Tags                  []string   `json:"tags"`
	DueDate               *time.Time `json:"due_date"`
	ReminderMinutesBefore *int       `json:"reminder_minutes_before" validate:"omitempty,min=0,max=10080"`
	RecurrencePattern     string     `json:"recurrence_pattern"      validate:"omitempty,oneof=daily weekly monthly custom"`
	RecurrenceCron        string     `json:"recurrence_cron"`
}

// UpdateTaskRequest is the request body for a partial task update. The
// DueDate field distinguishes absent from null via DueDateSet, populated
// during decoding by the presence of the key.
type UpdateTaskRequest struct {
	Title                 *string    `json:"title"                   validate:"omitempty,min=1,max=500"`
	Description           *string    `json:"description"             validate:"omitempty,max=5000"`
	Completed             *bool      `json:"completed"`
	Priority              *string    `json:"priority"                validate:"omitempty,oneof=high medium low none"`
	Tags                  []string   `json:"tags"`
	DueDate               *time.Time `json:"due_date"`
	ReminderMinutesBefore *int       `json:"reminder_minutes_before" validate:"omitempty,min=0,max=10080"`
	RecurrencePattern     *string    `json:"recurrence_pattern"      validate:"omitempty,oneof=daily weekly monthly custom"`
	RecurrenceCron        *string    `json:"recurrence_cron"`
	RecurrenceEnabled     *bool      `json:"recurrence_enabled"`
}

// TaskListResponse is the paginated task listing payload.
type TaskListResponse struct {
	Tasks    []*domain.Task `json:"tasks"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// TaskHandler handles task CRUD requests.
type TaskHandler struct {
	taskService *service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// CreateTask handles POST /api/tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, service.CreateTaskInput{
		Title:                 req.Title,
		Description:           req.Description,
		Priority:              domain.Priority(req.Priority),
		Tags:                  req.Tags,
		DueDate:               req.DueDate,
		ReminderMinutesBefore: req.ReminderMinutesBefore,
		RecurrencePattern:     domain.RecurrencePattern(req.RecurrencePattern),
		RecurrenceCron:        req.RecurrenceCron,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// ListTasks handles GET /api/tasks requests with search, filter, sort and
// pagination query parameters.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tasks, total, err := h.taskService.ListTasks(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Tasks:    tasks,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateTask handles PUT /api/tasks/{id} requests.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	input := service.UpdateTaskInput{
		Title:                 req.Title,
		Description:           req.Description,
		Completed:             req.Completed,
		Tags:                  req.Tags,
		ReminderMinutesBefore: req.ReminderMinutesBefore,
		RecurrenceCron:        req.RecurrenceCron,
		RecurrenceEnabled:     req.RecurrenceEnabled,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		input.Priority = &p
	}
	if req.RecurrencePattern != nil {
		rp := domain.RecurrencePattern(*req.RecurrencePattern)
		input.RecurrencePattern = &rp
	}
	if req.DueDate != nil {
		input.DueDate = req.DueDate
		input.SetDueDate = true
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskID, userID, input)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ToggleTask handles PATCH /api/tasks/{id}/toggle requests.
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleTask(r.Context(), taskID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID, userID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// taskRequestIDs extracts the authenticated user ID and the {id} route
// parameter, writing the error response itself when either is missing.
func (h *TaskHandler) taskRequestIDs(w http.ResponseWriter, r *http.Request) (userID, taskID uuid.UUID, ok bool) {
	userID, found := middleware.GetUserID(r)
	if !found || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, taskID, true
}

// taskFilterFromQuery builds a store.TaskFilter from list query parameters.
func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()

	filter := store.TaskFilter{
		Search:   q.Get("search"),
		Priority: domain.Priority(q.Get("priority")),
		Tag:      q.Get("tag"),
		Status:   store.TaskStatusFilter(q.Get("status")),
		SortBy:   store.TaskSortField(q.Get("sort_by")),
		SortDesc: q.Get("order") == "desc",
	}

	for name, dest := range map[string]**time.Time{
		"due_before": &filter.DueBefore,
		"due_after":  &filter.DueAfter,
	} {
		if raw := q.Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return store.TaskFilter{}, errInvalidQueryParam(name)
			}
			*dest = &t
		}
	}

	for name, dest := range map[string]*int{
		"page":      &filter.Page,
		"page_size": &filter.PageSize,
	} {
		if raw := q.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return store.TaskFilter{}, errInvalidQueryParam(name)
			}
			*dest = n
		}
	}

	return filter, nil
}

type errInvalidQueryParam string

func (e errInvalidQueryParam) Error() string {
	return "Invalid query parameter: " + string(e)
}
