package dto

// CreateTicketRequest registers a new complaint.
type CreateTicketRequest struct {
	Department  string `json:"department"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Remark      string `json:"remark"`
	TargetDate  string `json:"target_date"`
}

// TransitionRequest applies one state-machine action to a ticket.
type TransitionRequest struct {
	Action       string `json:"action"`
	Remark       string `json:"remark"`
	TargetDate   string `json:"target_date"`
	Rating       int    `json:"rating"`
	ToDepartment string `json:"to_department"`
	NewAssignee  string `json:"new_assignee"`
	Status       string `json:"status"`
}

// TicketSummary is the list-view projection of a ticket.
type TicketSummary struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Department   string `json:"department"`
	Description  string `json:"description"`
	ReportedBy   string `json:"reported_by"`
	ResolvedBy   string `json:"resolved_by,omitempty"`
	Unit         string `json:"unit,omitempty"`
	RegisteredAt string `json:"registered_at,omitempty"`
	TargetDate   string `json:"target_date,omitempty"`
	Delayed      bool   `json:"delayed"`
	Rating       int    `json:"rating,omitempty"`
}

// TicketDetailResponse is the full ticket projection including the
// append-only history log.
type TicketDetailResponse struct {
	TicketSummary
	Remark     string   `json:"remark,omitempty"`
	ResolvedAt string   `json:"resolved_at,omitempty"`
	ReopenedAt string   `json:"reopened_at,omitempty"`
	History    []string `json:"history"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items    []TicketSummary `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// DashboardResponse carries per-viewer aggregate counters.
type DashboardResponse struct {
	Open        int `json:"open"`
	Solved      int `json:"solved"`
	Transferred int `json:"transferred"`
	Extended    int `json:"extended"`
	Delayed     int `json:"delayed"`
}
