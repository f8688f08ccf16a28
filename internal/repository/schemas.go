package repository

import "github.com/sbhdesk/complaint-engine/internal/rowstore"

// Sheet names.
const (
	SheetTickets      = "complaints"
	SheetStaff        = "staff_directory"
	SheetDelayedCases = "delayed_cases"
	SheetRatingsLog   = "ratings_log"
	SheetTransferLog  = "transfer_log"
	SheetExtensionLog = "extension_log"
	SheetPerformance  = "performance"
)

// Canonical field names for the ticket sheet. Repositories address
// cells by these; the row store resolves whatever headers the sheet
// actually carries onto them.
const (
	FieldTicketID     = "ticket_id"
	FieldStatus       = "status"
	FieldDepartment   = "department"
	FieldDescription  = "description"
	FieldReportedBy   = "reported_by"
	FieldResolvedBy   = "resolved_by"
	FieldUnit         = "unit"
	FieldRemark       = "remark"
	FieldRegisteredAt = "registered_at"
	FieldTargetDate   = "target_date"
	FieldResolvedAt   = "resolved_at"
	FieldReopenedAt   = "reopened_at"
	FieldDelayFlag    = "delay_flag"
	FieldRating       = "rating"
	FieldHistory      = "history"
)

// Canonical field names shared by staff and ledger sheets.
const (
	FieldUsername     = "username"
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldRole         = "role"
	FieldActive       = "active"
	FieldPasswordHash = "password_hash"

	FieldDetectedAt = "detected_at"
	FieldNotified   = "notified"

	FieldRatedBy = "rated_by"
	FieldRatedAt = "rated_at"

	FieldFromDepartment = "from_department"
	FieldToDepartment   = "to_department"
	FieldActor          = "actor"
	FieldDate           = "date"
	FieldTime           = "time"

	FieldOldTarget = "old_target"
	FieldNewTarget = "new_target"
	FieldDiffDays  = "diff_days"
	FieldReason    = "reason"
)

// Canonical field names for the performance sheet.
const (
	FieldSolvedCount     = "solved_count"
	FieldRatingCount     = "rating_count"
	FieldAvgRating       = "avg_rating"
	FieldAvgSpeedHours   = "avg_speed_hours"
	FieldSpeedScore      = "speed_score"
	FieldDelayCount      = "delay_count"
	FieldDelayPenalty    = "delay_penalty"
	FieldTotalCases      = "total_cases"
	FieldEfficiencyScore = "efficiency_score"
	FieldComputedAt      = "computed_at"
	FieldRating1         = "rating_1"
	FieldRating2         = "rating_2"
	FieldRating3         = "rating_3"
	FieldRating4         = "rating_4"
	FieldRating5         = "rating_5"
)

// Schemas declares every sheet the engine touches, with the header
// spellings observed in hand-edited copies of each sheet.
func Schemas() []rowstore.Schema {
	return []rowstore.Schema{
		{
			Sheet: SheetTickets,
			Key:   FieldTicketID,
			Fields: []rowstore.Field{
				{Name: FieldTicketID, Aliases: []string{"Ticket ID", "TID", "Complaint ID", "Case ID"}},
				{Name: FieldStatus, Aliases: []string{"Status", "Case Status"}},
				{Name: FieldDepartment, Aliases: []string{"Department", "Dept", "Department Name"}},
				{Name: FieldDescription, Aliases: []string{"Description", "Complaint", "Issue", "Details"}},
				{Name: FieldReportedBy, Aliases: []string{"Reported By", "Registered By", "Complainant", "Reporter"}},
				{Name: FieldResolvedBy, Aliases: []string{"Resolved By", "Solved By", "Attended By", "Assignee"}},
				{Name: FieldUnit, Aliases: []string{"Unit", "Ward", "Location"}},
				{Name: FieldRemark, Aliases: []string{"Remark", "Remarks", "Comment"}},
				{Name: FieldRegisteredAt, Aliases: []string{"Registered At", "Registration Date", "Date Registered", "Created At"}},
				{Name: FieldTargetDate, Aliases: []string{"Target Date", "Target", "Deadline", "Due Date"}},
				{Name: FieldResolvedAt, Aliases: []string{"Resolved At", "Resolution Date", "Date Resolved", "Closed At"}},
				{Name: FieldReopenedAt, Aliases: []string{"Reopened At", "Reopen Date"}},
				{Name: FieldDelayFlag, Aliases: []string{"Delay Flag", "Delayed", "Delay", "Is Delayed"}},
				{Name: FieldRating, Aliases: []string{"Rating", "Stars", "Feedback"}},
				{Name: FieldHistory, Aliases: []string{"History", "Log", "Action Log"}},
			},
		},
		{
			Sheet: SheetStaff,
			Key:   FieldUsername,
			Fields: []rowstore.Field{
				{Name: FieldUsername, Aliases: []string{"Username", "User Name", "Login"}},
				{Name: FieldName, Aliases: []string{"Name", "Full Name"}},
				{Name: FieldPhone, Aliases: []string{"Phone", "Phone Number", "Mobile", "Contact"}},
				{Name: FieldRole, Aliases: []string{"Role", "User Role", "Designation"}},
				{Name: FieldDepartment, Aliases: []string{"Department", "Dept"}},
				{Name: FieldActive, Aliases: []string{"Active", "Is Active", "Enabled"}},
				{Name: FieldPasswordHash, Aliases: []string{"Password Hash", "Password"}},
			},
		},
		{
			Sheet: SheetDelayedCases,
			Key:   FieldTicketID,
			Fields: []rowstore.Field{
				{Name: FieldTicketID, Aliases: []string{"Ticket ID", "TID", "Complaint ID"}},
				{Name: FieldDepartment, Aliases: []string{"Department", "Dept"}},
				{Name: FieldRegisteredAt, Aliases: []string{"Registered At", "Registration Date"}},
				{Name: FieldDetectedAt, Aliases: []string{"Detected At", "Delay Date", "Detected On"}},
				{Name: FieldStatus, Aliases: []string{"Status"}},
				{Name: FieldNotified, Aliases: []string{"Notified", "Alert Sent"}},
			},
		},
		{
			Sheet: SheetRatingsLog,
			Key:   FieldTicketID,
			Fields: []rowstore.Field{
				{Name: FieldTicketID, Aliases: []string{"Ticket ID", "TID"}},
				{Name: FieldRatedBy, Aliases: []string{"Rated By", "Rater"}},
				{Name: FieldResolvedBy, Aliases: []string{"Resolved By", "Solved By"}},
				{Name: FieldRating, Aliases: []string{"Rating", "Stars"}},
				{Name: FieldRatedAt, Aliases: []string{"Rated At", "Rating Date"}},
			},
		},
		{
			Sheet: SheetTransferLog,
			Key:   FieldTicketID,
			Fields: []rowstore.Field{
				{Name: FieldTicketID, Aliases: []string{"Ticket ID", "TID"}},
				{Name: FieldFromDepartment, Aliases: []string{"From Department", "From", "Source"}},
				{Name: FieldToDepartment, Aliases: []string{"To Department", "To", "Destination"}},
				{Name: FieldActor, Aliases: []string{"Actor", "Transferred By"}},
				{Name: FieldStatus, Aliases: []string{"Status"}},
				{Name: FieldDate, Aliases: []string{"Date"}},
				{Name: FieldTime, Aliases: []string{"Time"}},
			},
		},
		{
			Sheet: SheetExtensionLog,
			Key:   FieldTicketID,
			Fields: []rowstore.Field{
				{Name: FieldTicketID, Aliases: []string{"Ticket ID", "TID"}},
				{Name: FieldOldTarget, Aliases: []string{"Old Target", "Previous Target"}},
				{Name: FieldNewTarget, Aliases: []string{"New Target"}},
				{Name: FieldDiffDays, Aliases: []string{"Diff Days", "Extension Days"}},
				{Name: FieldReason, Aliases: []string{"Reason"}},
				{Name: FieldActor, Aliases: []string{"Actor", "Extended By"}},
				{Name: FieldDate, Aliases: []string{"Date"}},
			},
		},
		{
			Sheet: SheetPerformance,
			Key:   FieldUsername,
			Fields: []rowstore.Field{
				{Name: FieldUsername, Aliases: []string{"Username", "User Name"}},
				{Name: FieldSolvedCount, Aliases: []string{"Solved Count", "Solved"}},
				{Name: FieldRatingCount, Aliases: []string{"Rating Count", "Ratings"}},
				{Name: FieldAvgRating, Aliases: []string{"Avg Rating", "Average Rating"}},
				{Name: FieldAvgSpeedHours, Aliases: []string{"Avg Speed Hours", "Average Speed"}},
				{Name: FieldSpeedScore, Aliases: []string{"Speed Score"}},
				{Name: FieldDelayCount, Aliases: []string{"Delay Count", "Delays"}},
				{Name: FieldDelayPenalty, Aliases: []string{"Delay Penalty"}},
				{Name: FieldTotalCases, Aliases: []string{"Total Cases"}},
				{Name: FieldRating1, Aliases: []string{"Rating 1", "One Star"}},
				{Name: FieldRating2, Aliases: []string{"Rating 2", "Two Star"}},
				{Name: FieldRating3, Aliases: []string{"Rating 3", "Three Star"}},
				{Name: FieldRating4, Aliases: []string{"Rating 4", "Four Star"}},
				{Name: FieldRating5, Aliases: []string{"Rating 5", "Five Star"}},
				{Name: FieldEfficiencyScore, Aliases: []string{"Efficiency Score", "Score"}},
				{Name: FieldComputedAt, Aliases: []string{"Computed At", "Last Computed"}},
			},
		},
	}
}
