package policy

// Action is an audited action kind. The enumeration is closed; unknown
// stored values parse as ActionAdminAction.
type Action string

const (
	// Auth events.
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionRegister       Action = "register"
	ActionPasswordChange Action = "password_change"
	ActionUserApproved   Action = "user_approved"
	ActionUserRejected   Action = "user_rejected"
	ActionUserDeleted    Action = "user_deleted"

	// Data events.
	ActionQueryExecuted Action = "query_executed"
	ActionDataUpload    Action = "data_upload"
	ActionDataExport    Action = "data_export"

	// Trading events.
	ActionStrategyCreated Action = "strategy_created"
	ActionStrategyUpdated Action = "strategy_updated"
	ActionStrategyDeleted Action = "strategy_deleted"
	ActionBacktestRun     Action = "backtest_run"
	ActionLiveTradeStart  Action = "live_trade_start"
	ActionLiveTradeStop   Action = "live_trade_stop"

	// Admin events.
	ActionAdminAction  Action = "admin_action"
	ActionConfigChange Action = "config_change"

	// Billing events.
	ActionSubscriptionChange Action = "subscription_change"
	ActionPaymentReceived    Action = "payment_received"
)

var allActions = map[Action]struct{}{
	ActionLogin: {}, ActionLogout: {}, ActionRegister: {},
	ActionPasswordChange: {}, ActionUserApproved: {}, ActionUserRejected: {},
	ActionUserDeleted: {}, ActionQueryExecuted: {}, ActionDataUpload: {},
	ActionDataExport: {}, ActionStrategyCreated: {}, ActionStrategyUpdated: {},
	ActionStrategyDeleted: {}, ActionBacktestRun: {}, ActionLiveTradeStart: {},
	ActionLiveTradeStop: {}, ActionAdminAction: {}, ActionConfigChange: {},
	ActionSubscriptionChange: {}, ActionPaymentReceived: {},
}

// billableActions are the action kinds that consume compute credits and are
// counted toward usage-based billing.
var billableActions = map[Action]struct{}{
	ActionQueryExecuted:  {},
	ActionDataUpload:     {},
	ActionDataExport:     {},
	ActionBacktestRun:    {},
	ActionLiveTradeStart: {},
}

// ParseAction maps a stored string onto an Action.
func ParseAction(s string) Action {
	if _, ok := allActions[Action(s)]; ok {
		return Action(s)
	}
	return ActionAdminAction
}

// IsBillable reports whether the action counts toward usage-based billing.
func (a Action) IsBillable() bool {
	_, ok := billableActions[a]
	return ok
}

func (a Action) String() string { return string(a) }
