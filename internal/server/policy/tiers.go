package policy

// Tier is a subscription tier matching the pricing plans.
type Tier string

const (
	TierFree         Tier = "free"
	TierHobbyist     Tier = "hobbyist"
	TierPioneer      Tier = "pioneer"
	TierProfessional Tier = "professional"
)

// tierInfo bundles the static per-tier policy: the monthly price in EUR
// cents and the role granted on admin approval.
type tierInfo struct {
	priceCents  uint32
	defaultRole Role
}

var tiers = map[Tier]tierInfo{
	TierFree:         {priceCents: 0, defaultRole: RoleRegistered},
	TierHobbyist:     {priceCents: 900, defaultRole: RoleTrader},
	TierPioneer:      {priceCents: 2900, defaultRole: RoleTrader},
	TierProfessional: {priceCents: 4900, defaultRole: RoleTrader},
}

// ParseTier maps a stored string onto a Tier. Unknown values degrade to
// free.
func ParseTier(s string) Tier {
	if _, ok := tiers[Tier(s)]; ok {
		return Tier(s)
	}
	return TierFree
}

// DefaultRole returns the role a user is promoted to when approved on this
// tier.
func (t Tier) DefaultRole() Role {
	return tiers[t].defaultRole
}

// MonthlyPriceCents returns the tier's monthly price in EUR cents.
func (t Tier) MonthlyPriceCents() uint32 {
	return tiers[t].priceCents
}

func (t Tier) String() string { return string(t) }
