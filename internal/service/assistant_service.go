package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/domain/match"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// Intent names returned in assistant responses.
const (
	IntentAdd      = "add"
	IntentList     = "list"
	IntentComplete = "complete"
	IntentDelete   = "delete"
	IntentHelp     = "help"
	IntentUnknown  = "unknown"
)

// assistantListLimit caps how many tasks a list reply enumerates.
const assistantListLimit = 10

// AssistantResponse is the assistant's reply to one message.
type AssistantResponse struct {
	Message     string   `json:"message"`
	Intent      string   `json:"intent"`
	Success     bool     `json:"success"`
	Data        any      `json:"data,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// assistantTask is the task summary embedded in response data.
type assistantTask struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
}

// intentPattern pairs an intent with one of its trigger expressions. The
// first capture group, when present, carries the command parameter.
type intentPattern struct {
	intent string
	re     *regexp.Regexp
}

// intentPatterns are tried in order; the first match wins, so parameterized
// intents come before the catch-all list phrasings.
var intentPatterns = []intentPattern{
	{IntentAdd, regexp.MustCompile(`add\s+task[:\s]+(.+)`)},
	{IntentAdd, regexp.MustCompile(`create[:\s]+(.+)`)},
	{IntentAdd, regexp.MustCompile(`new\s+task[:\s]+(.+)`)},
	{IntentComplete, regexp.MustCompile(`complete[:\s]+(.+)`)},
	{IntentComplete, regexp.MustCompile(`mark\s+done[:\s]+(.+)`)},
	{IntentComplete, regexp.MustCompile(`finish[:\s]+(.+)`)},
	{IntentComplete, regexp.MustCompile(`done[:\s]+(.+)`)},
	{IntentDelete, regexp.MustCompile(`delete[:\s]+(.+)`)},
	{IntentDelete, regexp.MustCompile(`remove[:\s]+(.+)`)},
	{IntentList, regexp.MustCompile(`show\s+(?:all\s+)?tasks?`)},
	{IntentList, regexp.MustCompile(`list\s+(?:all\s+)?tasks?`)},
	{IntentList, regexp.MustCompile(`my\s+tasks?`)},
	{IntentList, regexp.MustCompile(`show\s+pending(?:\s+tasks?)?`)},
	{IntentList, regexp.MustCompile(`show\s+completed(?:\s+tasks?)?`)},
	{IntentList, regexp.MustCompile(`pending\s+tasks?`)},
	{IntentList, regexp.MustCompile(`completed\s+tasks?`)},
	{IntentList, regexp.MustCompile(`what.*tasks`)},
	{IntentHelp, regexp.MustCompile(`^help$`)},
	{IntentHelp, regexp.MustCompile(`^\?$`)},
	{IntentHelp, regexp.MustCompile(`commands?`)},
	{IntentHelp, regexp.MustCompile(`what\s+can\s+you\s+do`)},
	// This catch-all must stay last among add patterns or it would swallow
	// "add task:" phrasings with the word "task" in the title.
	{IntentAdd, regexp.MustCompile(`add[:\s]+(.+)`)},
}

const helpMessage = `I can help you manage your tasks! Try these commands:

**Add tasks:**
- "Add task: Buy groceries"
- "Create: Review documents"

**View tasks:**
- "Show my tasks"
- "Show pending tasks"
- "Show completed tasks"

**Complete tasks:**
- "Complete: Buy groceries"
- "Mark done: Review documents"

**Delete tasks:**
- "Delete: Old task"
- "Remove: Cancelled item"

**Get help:**
- "Help" or "?"
`

// AssistantService turns natural-language messages into task operations.
// Command parsing is regex-based intent detection; task references are
// resolved with the fuzzy title matcher, and ambiguous references come back
// as a picklist instead of acting on a guess.
type AssistantService struct {
	tasks  *TaskService
	logger *slog.Logger
}

// NewAssistantService creates an AssistantService.
func NewAssistantService(tasks *TaskService, log *slog.Logger) *AssistantService {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for AssistantService")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AssistantService")
	}

	return &AssistantService{
		tasks:  tasks,
		logger: log.With(slog.String("component", "assistant_service")),
	}
}

// DetectIntent classifies a message and extracts its parameter, if any.
func DetectIntent(message string) (string, string) {
	lowered := strings.ToLower(strings.TrimSpace(message))
	for _, p := range intentPatterns {
		m := p.re.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		param := ""
		if len(m) > 1 {
			param = strings.TrimSpace(m[1])
		}
		return p.intent, param
	}
	return IntentUnknown, ""
}

// ProcessMessage interprets one message and performs the requested action.
func (s *AssistantService) ProcessMessage(ctx context.Context, userID uuid.UUID, message string) (*AssistantResponse, error) {
	intent, param := DetectIntent(message)

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("assistant intent detected",
		slog.String("intent", intent),
		slog.String("user_id", userID.String()))

	switch intent {
	case IntentHelp:
		return &AssistantResponse{
			Message:     helpMessage,
			Intent:      IntentHelp,
			Success:     true,
			Suggestions: []string{"Show my tasks", "Add task: ", "Help"},
		}, nil
	case IntentAdd:
		return s.handleAdd(ctx, userID, param)
	case IntentList:
		return s.handleList(ctx, userID, message)
	case IntentComplete:
		return s.handleComplete(ctx, userID, param)
	case IntentDelete:
		return s.handleDelete(ctx, userID, param)
	default:
		return &AssistantResponse{
			Message:     "I didn't understand that. Try 'Help' to see what I can do!",
			Intent:      IntentUnknown,
			Success:     false,
			Suggestions: []string{"Help", "Show my tasks", "Add task: "},
		}, nil
	}
}

func (s *AssistantService) handleAdd(ctx context.Context, userID uuid.UUID, title string) (*AssistantResponse, error) {
	if title == "" {
		return &AssistantResponse{
			Message:     "Please specify a task title. Example: 'Add task: Buy groceries'",
			Intent:      IntentAdd,
			Success:     false,
			Suggestions: []string{"Add task: Buy groceries", "Add task: Review documents"},
		}, nil
	}

	task, err := s.tasks.CreateTask(ctx, userID, CreateTaskInput{Title: title})
	if err != nil {
		return nil, err
	}

	return &AssistantResponse{
		Message: fmt.Sprintf("Task '%s' created!", task.Title),
		Intent:  IntentAdd,
		Success: true,
		Data:    summarize(task),
		Suggestions: []string{
			"Show my tasks",
			"Add another task",
			"Complete: " + task.Title,
		},
	}, nil
}

func (s *AssistantService) handleList(ctx context.Context, userID uuid.UUID, message string) (*AssistantResponse, error) {
	lowered := strings.ToLower(message)

	status := store.TaskStatusAny
	filterName := "all"
	switch {
	case strings.Contains(lowered, "pending"):
		status = store.TaskStatusPending
		filterName = "pending"
	case strings.Contains(lowered, "completed"):
		status = store.TaskStatusCompleted
		filterName = "completed"
	}

	tasks, total, err := s.tasks.ListTasks(ctx, userID, store.TaskFilter{
		Status:   status,
		PageSize: assistantListLimit,
	})
	if err != nil {
		return nil, err
	}

	if len(tasks) == 0 {
		return &AssistantResponse{
			Message:     fmt.Sprintf("No %s tasks found.", filterName),
			Intent:      IntentList,
			Success:     true,
			Suggestions: []string{"Add task: ", "Show all tasks"},
		}, nil
	}

	lines := make([]string, 0, len(tasks))
	data := make([]assistantTask, 0, len(tasks))
	for _, task := range tasks {
		status := "[ ]"
		if task.Completed {
			status = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%s %s", status, task.Title))
		data = append(data, summarize(task))
	}

	countSuffix := ""
	if total > len(tasks) {
		countSuffix = fmt.Sprintf(" (showing %d of %d)", len(tasks), total)
	}

	return &AssistantResponse{
		Message: fmt.Sprintf("Your %s tasks%s:\n\n%s",
			filterName, countSuffix, strings.Join(lines, "\n")),
		Intent:      IntentList,
		Success:     true,
		Data:        data,
		Suggestions: []string{"Show pending tasks", "Show completed tasks", "Add task: "},
	}, nil
}

func (s *AssistantService) handleComplete(ctx context.Context, userID uuid.UUID, title string) (*AssistantResponse, error) {
	if title == "" {
		return &AssistantResponse{
			Message:     "Please specify which task to complete. Example: 'Complete: Buy groceries'",
			Intent:      IntentComplete,
			Success:     false,
			Suggestions: []string{"Show my tasks", "Complete: "},
		}, nil
	}

	result, err := s.resolve(ctx, userID, title)
	if err != nil {
		return nil, err
	}

	switch result.Kind {
	case match.KindNone:
		return &AssistantResponse{
			Message:     fmt.Sprintf("Couldn't find a task matching '%s'.", title),
			Intent:      IntentComplete,
			Success:     false,
			Suggestions: []string{"Show my tasks", "Add task: " + title},
		}, nil
	case match.KindAmbiguous:
		return ambiguousResponse(IntentComplete, "Complete", title, result.Candidates), nil
	}

	task := result.Task
	if task.Completed {
		return &AssistantResponse{
			Message:     fmt.Sprintf("Task '%s' is already completed!", task.Title),
			Intent:      IntentComplete,
			Success:     true,
			Data:        summarize(task),
			Suggestions: []string{"Show my tasks", "Delete: " + task.Title},
		}, nil
	}

	completed := true
	updated, err := s.tasks.UpdateTask(ctx, task.ID, userID, UpdateTaskInput{Completed: &completed})
	if err != nil {
		return nil, err
	}

	return &AssistantResponse{
		Message:     fmt.Sprintf("Task '%s' marked as complete!", updated.Title),
		Intent:      IntentComplete,
		Success:     true,
		Data:        summarize(updated),
		Suggestions: []string{"Show my tasks", "Show pending tasks", "Add task: "},
	}, nil
}

func (s *AssistantService) handleDelete(ctx context.Context, userID uuid.UUID, title string) (*AssistantResponse, error) {
	if title == "" {
		return &AssistantResponse{
			Message:     "Please specify which task to delete. Example: 'Delete: Buy groceries'",
			Intent:      IntentDelete,
			Success:     false,
			Suggestions: []string{"Show my tasks", "Delete: "},
		}, nil
	}

	result, err := s.resolve(ctx, userID, title)
	if err != nil {
		return nil, err
	}

	switch result.Kind {
	case match.KindNone:
		return &AssistantResponse{
			Message:     fmt.Sprintf("Couldn't find a task matching '%s'.", title),
			Intent:      IntentDelete,
			Success:     false,
			Suggestions: []string{"Show my tasks"},
		}, nil
	case match.KindAmbiguous:
		return ambiguousResponse(IntentDelete, "Delete", title, result.Candidates), nil
	}

	deleted := result.Task.Title
	if err := s.tasks.DeleteTask(ctx, result.Task.ID, userID); err != nil {
		return nil, err
	}

	return &AssistantResponse{
		Message:     fmt.Sprintf("Task '%s' deleted!", deleted),
		Intent:      IntentDelete,
		Success:     true,
		Suggestions: []string{"Show my tasks", "Add task: "},
	}, nil
}

// resolve runs the fuzzy matcher over all of the user's tasks.
func (s *AssistantService) resolve(ctx context.Context, userID uuid.UUID, title string) (match.Result, error) {
	tasks, _, err := s.tasks.ListTasks(ctx, userID, store.TaskFilter{
		PageSize: maxResolveCandidates,
	})
	if err != nil {
		return match.Result{}, err
	}
	return match.FindTaskByTitle(title, tasks), nil
}

// maxResolveCandidates bounds how many tasks the resolver scores per
// message.
const maxResolveCandidates = 100

// ambiguousResponse builds the picklist reply for a near-tie resolution.
func ambiguousResponse(intent, verb, query string, candidates []match.Candidate) *AssistantResponse {
	lines := make([]string, 0, len(candidates))
	suggestions := make([]string, 0, len(candidates))
	data := make([]assistantTask, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, "- "+c.Task.Title)
		suggestions = append(suggestions, verb+": "+c.Task.Title)
		data = append(data, summarize(c.Task))
	}

	return &AssistantResponse{
		Message: fmt.Sprintf("Several tasks match '%s'. Which one did you mean?\n\n%s",
			query, strings.Join(lines, "\n")),
		Intent:      intent,
		Success:     false,
		Data:        data,
		Suggestions: suggestions,
	}
}

func summarize(task *domain.Task) assistantTask {
	return assistantTask{ID: task.ID, Title: task.Title, Completed: task.Completed}
}
