package entitlements

import (
	"strings"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

type Plan string

const (
	PlanFree           Plan = Plan(models.PlanFree)
	PlanTestimonialHub Plan = Plan(models.PlanTestimonialHubPro)
	PlanStatusPage     Plan = Plan(models.PlanStatusPagePro)
	PlanBundle         Plan = Plan(models.PlanBundle)
)

// MaxProjects returns how many projects a plan may create. 0 means unlimited.
func MaxProjects(plan Plan) int64 {
	switch plan {
	case PlanBundle:
		return 0
	case PlanTestimonialHub, PlanStatusPage:
		return 10
	default:
		return 1
	}
}

// CanUseStatusPage reports whether the plan includes status pages and
// subscriber notifications.
func CanUseStatusPage(plan Plan) bool {
	return plan == PlanStatusPage || plan == PlanBundle
}

// CanCollectVideo reports whether the plan accepts video testimonial
// submissions.
func CanCollectVideo(plan Plan) bool {
	return plan == PlanTestimonialHub || plan == PlanBundle
}

// Normalize maps an account's stored plan to an entitlement plan. Paid
// entitlements require the subscription to still be active or in the
// past-due grace state.
func Normalize(planType, planStatus string) Plan {
	if planStatus != models.BillingStatusActive && planStatus != models.BillingStatusPastDue {
		return PlanFree
	}
	switch Plan(strings.ToLower(planType)) {
	case PlanTestimonialHub:
		return PlanTestimonialHub
	case PlanStatusPage:
		return PlanStatusPage
	case PlanBundle:
		return PlanBundle
	default:
		return PlanFree
	}
}
