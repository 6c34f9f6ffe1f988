package billing

import (
	"testing"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

func TestPlanResolverDefaults(t *testing.T) {
	r := NewPlanResolver()

	// Any variant of the TestimonialHub product maps to its pro tier.
	if got := r.Resolve(12345, 1); got != models.PlanTestimonialHubPro {
		t.Fatalf("Resolve(12345, 1) = %q, want %q", got, models.PlanTestimonialHubPro)
	}
	if got := r.Resolve(12345, 42); got != models.PlanTestimonialHubPro {
		t.Fatalf("Resolve(12345, 42) = %q, want %q", got, models.PlanTestimonialHubPro)
	}
	if got := r.Resolve(67890, 7); got != models.PlanStatusPagePro {
		t.Fatalf("Resolve(67890, 7) = %q, want %q", got, models.PlanStatusPagePro)
	}
	// Bundle is keyed by variant alone.
	if got := r.Resolve(0, 88001); got != models.PlanBundle {
		t.Fatalf("Resolve(0, 88001) = %q, want %q", got, models.PlanBundle)
	}
	// Unknown pairs never fail, they fall back to free.
	if got := r.Resolve(999999, 999999); got != models.PlanFree {
		t.Fatalf("Resolve(999999, 999999) = %q, want %q", got, models.PlanFree)
	}
}

func TestPlanResolverPairPrecedence(t *testing.T) {
	r := NewPlanResolver()
	r.AddMapping(12345, 500, models.PlanBundle)

	if got := r.Resolve(12345, 500); got != models.PlanBundle {
		t.Fatalf("exact pair should win, got %q", got)
	}
	if got := r.Resolve(12345, 501); got != models.PlanTestimonialHubPro {
		t.Fatalf("other variants should keep the product mapping, got %q", got)
	}
}

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "free", want: models.PlanFree},
		{in: "testimonialhub_pro", want: models.PlanTestimonialHubPro},
		{in: "STATUSPAGE_PRO", want: models.PlanStatusPagePro},
		{in: "bundle", want: models.PlanBundle},
		{in: "invalid", want: models.PlanFree},
	}

	for _, tt := range tests {
		if got := normalizePlan(tt.in); got != tt.want {
			t.Fatalf("normalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
