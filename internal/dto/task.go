package dto

import dom "taskapi/internal/domain"

// TaskInput is the JSON body for POST /tasks and PUT /tasks/{id}.
// A missing or null title is valid.
type TaskInput struct {
	Title *string `json:"title" example:"pick up the laundry"`
}

// TaskCreateResponse echoes the target id with the stored title.
type TaskCreateResponse struct {
	ID    int64   `json:"id" example:"1"`
	Title *string `json:"title" example:"pick up the laundry"`
}

// TaskResponse is the full read view of a task.
type TaskResponse struct {
	ID    int64   `json:"id" example:"1"`
	Title *string `json:"title" example:"pick up the laundry"`
	Done  bool    `json:"done" example:"false"`
}

// ToCreateResponse projects a stored task onto the create/update response.
func ToCreateResponse(t dom.Task) TaskCreateResponse {
	return TaskCreateResponse{
		ID:    t.ID,
		Title: copyTitle(t.Title),
	}
}

// ToTaskResponse projects a stored task onto the full view.
func ToTaskResponse(t dom.Task) TaskResponse {
	return TaskResponse{
		ID:    t.ID,
		Title: copyTitle(t.Title),
		Done:  t.Done,
	}
}

// ToTaskResponses never returns nil so an empty list encodes as [].
func ToTaskResponses(list []dom.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = ToTaskResponse(list[i])
	}
	return out
}

func copyTitle(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
