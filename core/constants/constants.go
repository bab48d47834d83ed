package constants

// Context keys
const (
	ContextTokenData = "token_data"
)

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Vote value scale. Values are normalized to [0,1] as (v-min)/(max-min).
const (
	VoteValueMin = 1
	VoteValueMax = 5
)

// DefaultAcceptanceThreshold applies when the event creator (or a recurring
// template) sets no threshold of their own.
const DefaultAcceptanceThreshold = 0.7

// Optimistic-lock retry budget for event transitions.
const (
	TransitionMaxRetries = 3
)

// Asynq task type names.
const (
	TaskSweepVotingDeadlines = "sweep:voting_deadlines"
	TaskSweepReminders       = "sweep:reminders"
	TaskSweepRecurring       = "sweep:recurring_materialization"
	TaskSweepWaitlistExpiry  = "sweep:waitlist_expiry"
	TaskSweepCompletion      = "sweep:event_completion"
	TaskAiAnalysisDispatch   = "ai:dispatch_analysis"
)

// Notification kinds sent to participants.
const (
	NotificationKindReminder           = "event_reminder"
	NotificationKindWaitlistPromotion  = "waitlist_promotion"
	NotificationKindStatusChange       = "event_status_change"
	NotificationKindReschedule         = "event_rescheduled"
	NotificationKindVotingOpened       = "voting_opened"
	NotificationKindUnresolvedDecision = "acceptance_unresolved"
	NotificationKindAiTimedOut         = "ai_analysis_timed_out"
)
