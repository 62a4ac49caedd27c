package dto

// TicketCreateRequest is the creation form payload.
type TicketCreateRequest struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Priority    string `form:"priority"`
}

// CommentRequest is the comment form payload.
type CommentRequest struct {
	Comment string `form:"comment"`
}

// TicketUpdateRequest is the form-based update payload. AssignedTo is the
// raw select value; empty means unassigned.
type TicketUpdateRequest struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	AssignedTo string `form:"assigned_to"`
}

// AjaxUpdateRequest is the structured in-place edit payload.
type AjaxUpdateRequest struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// AjaxUpdateResponse reports the in-place edit outcome.
type AjaxUpdateResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
