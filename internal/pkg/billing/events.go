package billing

import "strings"

// ReconciliationAction is the closed set of things a webhook event can do to
// a billing account.
type ReconciliationAction int

const (
	ActionIgnore ReconciliationAction = iota
	ActionCreateOrActivate
	ActionUpdateStatus
	ActionEndSubscription
	ActionRenewPeriod
	ActionMarkPastDue
)

func (a ReconciliationAction) String() string {
	switch a {
	case ActionCreateOrActivate:
		return "create_or_activate"
	case ActionUpdateStatus:
		return "update_status"
	case ActionEndSubscription:
		return "end_subscription"
	case ActionRenewPeriod:
		return "renew_period"
	case ActionMarkPastDue:
		return "mark_past_due"
	default:
		return "ignore"
	}
}

// ClassifyEvent maps a provider event name to a reconciliation action.
// Unrecognized names classify as ActionIgnore so the provider gets an
// acknowledgement instead of retrying indefinitely.
func ClassifyEvent(eventName string) ReconciliationAction {
	switch strings.ToLower(strings.TrimSpace(eventName)) {
	case "subscription_created":
		return ActionCreateOrActivate
	case "subscription_updated":
		return ActionUpdateStatus
	case "subscription_cancelled", "subscription_expired":
		return ActionEndSubscription
	case "subscription_payment_success":
		return ActionRenewPeriod
	case "subscription_payment_failed":
		return ActionMarkPastDue
	default:
		return ActionIgnore
	}
}
