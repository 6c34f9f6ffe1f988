package billing

import "testing"

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		in   string
		want ReconciliationAction
	}{
		{in: "subscription_created", want: ActionCreateOrActivate},
		{in: "subscription_updated", want: ActionUpdateStatus},
		{in: "subscription_cancelled", want: ActionEndSubscription},
		{in: "subscription_expired", want: ActionEndSubscription},
		{in: "subscription_payment_success", want: ActionRenewPeriod},
		{in: "subscription_payment_failed", want: ActionMarkPastDue},
		{in: "order_created", want: ActionIgnore},
		{in: "", want: ActionIgnore},
		{in: "SUBSCRIPTION_CREATED", want: ActionCreateOrActivate},
	}

	for _, tt := range tests {
		if got := ClassifyEvent(tt.in); got != tt.want {
			t.Fatalf("ClassifyEvent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReconciliationActionString(t *testing.T) {
	if ActionIgnore.String() != "ignore" {
		t.Fatalf("unexpected string for ignore action: %q", ActionIgnore.String())
	}
	if ActionCreateOrActivate.String() != "create_or_activate" {
		t.Fatalf("unexpected string: %q", ActionCreateOrActivate.String())
	}
}
