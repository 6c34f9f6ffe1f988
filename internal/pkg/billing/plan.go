package billing

import (
	"strings"

	"github.com/CodeFuMaster/TrustLoops/app/models"
)

// Default catalog identifiers shipped by the provider store. Additional or
// overriding rows live in the billing_plan_mappings table.
const (
	productTestimonialHubPro int64 = 12345
	productStatusPagePro     int64 = 67890
	variantBundle            int64 = 88001
)

type planKey struct {
	productID int64
	variantID int64
}

// PlanResolver maps provider (product, variant) identifiers to internal plan
// types. Lookup order: exact pair, variant-only, product-only. Unknown pairs
// resolve to free so unexpected catalog data never blocks reconciliation.
type PlanResolver struct {
	byPair    map[planKey]string
	byVariant map[int64]string
	byProduct map[int64]string
}

// NewPlanResolver creates a resolver seeded with the built-in catalog.
func NewPlanResolver() *PlanResolver {
	r := &PlanResolver{
		byPair:    make(map[planKey]string),
		byVariant: make(map[int64]string),
		byProduct: make(map[int64]string),
	}
	r.AddMapping(productTestimonialHubPro, 0, models.PlanTestimonialHubPro)
	r.AddMapping(productStatusPagePro, 0, models.PlanStatusPagePro)
	r.AddMapping(0, variantBundle, models.PlanBundle)
	return r
}

// AddMapping registers a mapping. A zero variant applies to every variant of
// the product; a zero product keys the mapping by variant alone.
func (r *PlanResolver) AddMapping(productID, variantID int64, plan string) {
	plan = normalizePlan(plan)
	switch {
	case productID != 0 && variantID != 0:
		r.byPair[planKey{productID, variantID}] = plan
	case variantID != 0:
		r.byVariant[variantID] = plan
	case productID != 0:
		r.byProduct[productID] = plan
	}
}

// LoadMappings merges active rows from the plan mapping table.
func (r *PlanResolver) LoadMappings(repo Repository) error {
	mappings, err := repo.ListActivePlanMappings(models.BillingProviderLemonSqueezy)
	if err != nil {
		return err
	}
	for _, m := range mappings {
		r.AddMapping(m.ProductID, m.VariantID, m.InternalPlan)
	}
	return nil
}

// Resolve maps catalog identifiers to an internal plan type.
func (r *PlanResolver) Resolve(productID, variantID int64) string {
	if plan, ok := r.byPair[planKey{productID, variantID}]; ok {
		return plan
	}
	if plan, ok := r.byVariant[variantID]; ok {
		return plan
	}
	if plan, ok := r.byProduct[productID]; ok {
		return plan
	}
	return models.PlanFree
}

func normalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanTestimonialHubPro:
		return models.PlanTestimonialHubPro
	case models.PlanStatusPagePro:
		return models.PlanStatusPagePro
	case models.PlanBundle:
		return models.PlanBundle
	default:
		return models.PlanFree
	}
}
