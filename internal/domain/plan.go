package domain

// Tier is a named subscription level
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

// ParseTier maps a raw string to a known tier, falling back to free
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierBasic, TierPremium, TierVIP:
		return Tier(s)
	default:
		return TierFree
	}
}

// Plan describes what a tier buys: daily generation allowance and price
type Plan struct {
	Tier       Tier
	Name       string
	DailyLimit int
	Price      int // rubles, for the card provider
	StarsPrice int // Telegram Stars
	Currency   string
}

// plans is the typed plan registry, resolved once at startup
var plans = map[Tier]Plan{
	TierFree:    {Tier: TierFree, Name: "Free", DailyLimit: 5, Price: 0, StarsPrice: 0, Currency: "RUB"},
	TierBasic:   {Tier: TierBasic, Name: "Basic", DailyLimit: 100, Price: 79, StarsPrice: 99, Currency: "RUB"},
	TierPremium: {Tier: TierPremium, Name: "Premium", DailyLimit: 500, Price: 159, StarsPrice: 199, Currency: "RUB"},
	TierVIP:     {Tier: TierVIP, Name: "VIP", DailyLimit: 9999, Price: 229, StarsPrice: 299, Currency: "RUB"},
}

// PlanFor returns the plan for a tier, falling back to the free plan
// for unrecognized tiers
func PlanFor(tier Tier) Plan {
	if p, ok := plans[tier]; ok {
		return p
	}
	return plans[TierFree]
}

// PaidTiers returns the purchasable tiers in display order
func PaidTiers() []Tier {
	return []Tier{TierBasic, TierPremium, TierVIP}
}
