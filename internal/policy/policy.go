// Package policy decides whether a principal may perform an action on a
// record. Decisions are pure functions of the caller, the record's resolved
// owner and the set of fields being changed; nothing here touches storage.
package policy

import (
	"sort"

	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
)

// Action is an operation requested on a resource.
type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource is a family of records guarded by the gate.
type Resource string

const (
	ResourceCalculator Resource = "calculator"
	ResourceInvestment Resource = "investment"
	ResourceAnalysis   Resource = "analysis"
	ResourceProperty   Resource = "property"
	ResourceSetting    Resource = "setting"
	ResourceUser       Resource = "user"
	ResourceDashboard  Resource = "dashboard"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   models.UserRole
}

// IsAdvisor reports whether the caller is an advisor.
func (p Principal) IsAdvisor() bool { return p.Role == models.RoleAdvisor }

// Target describes the record an action applies to. OwnerID is the user that
// owns the record: the calculator owner for calculators, investments and
// analyses, and the user itself for users. Fields lists the JSON fields of an
// update request.
type Target struct {
	Resource Resource
	OwnerID  string
	Fields   []string
}

// Fields an investor may change on records they own.
var (
	InvestorCalculatorFields = []string{"selfEquity", "hasMortgage", "hasPropertyInIsrael", "investmentPreference"}
	InvestorInvestmentFields = []string{"hasFurniture", "hasPropertyManagement", "hasRealEstateAgent"}
	InvestorProfileFields    = []string{"name", "email", "phone"}
)

// Authorize returns nil when p may perform action on t, or a FORBIDDEN
// AppError. Allow-list violations name the offending fields.
func Authorize(p Principal, action Action, t Target) error {
	if p.UserID == "" {
		return apperrors.ErrUnauthorized
	}
	if p.IsAdvisor() {
		return nil
	}
	if p.Role != models.RoleInvestor {
		return apperrors.ErrForbidden
	}

	switch t.Resource {
	case ResourceProperty:
		if action == ActionList || action == ActionRead {
			return nil
		}
		return apperrors.ErrForbidden

	case ResourceSetting:
		if action == ActionRead {
			return nil
		}
		return apperrors.ErrForbidden

	case ResourceDashboard:
		if action == ActionRead {
			return nil
		}
		return apperrors.ErrForbidden

	case ResourceUser:
		if t.OwnerID != p.UserID {
			return apperrors.ErrForbidden
		}
		switch action {
		case ActionRead:
			return nil
		case ActionUpdate:
			return allowOnly(t.Fields, InvestorProfileFields)
		}
		return apperrors.ErrForbidden

	case ResourceCalculator:
		if action == ActionDelete || t.OwnerID != p.UserID {
			return apperrors.ErrForbidden
		}
		if action == ActionUpdate {
			return allowOnly(t.Fields, InvestorCalculatorFields)
		}
		return nil

	case ResourceInvestment:
		if t.OwnerID != p.UserID {
			return apperrors.ErrForbidden
		}
		if action == ActionUpdate {
			return allowOnly(t.Fields, InvestorInvestmentFields)
		}
		return nil

	case ResourceAnalysis:
		if t.OwnerID != p.UserID {
			return apperrors.ErrForbidden
		}
		return nil
	}

	return apperrors.ErrForbidden
}

// Disallowed returns the members of fields not present in allowed, sorted.
func Disallowed(fields, allowed []string) []string {
	ok := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		ok[f] = struct{}{}
	}
	var out []string
	for _, f := range fields {
		if _, found := ok[f]; !found {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func allowOnly(fields, allowed []string) error {
	if bad := Disallowed(fields, allowed); len(bad) > 0 {
		return apperrors.Forbidden(bad)
	}
	return nil
}
