package billing

import (
	"fmt"
	"sort"
	"strings"
)

// PriceTable maps (plan, cycle) and (add-on, cycle) to provider price
// identifiers. It is loaded once at process start and injected; handlers
// never read price configuration from the environment directly.
type PriceTable struct {
	EssentialsMonthly string `env:"PRICE_ESSENTIALS_MONTHLY"`
	EssentialsYearly  string `env:"PRICE_ESSENTIALS_YEARLY"`
	ProMonthly        string `env:"PRICE_PRO_MONTHLY"`
	ProYearly         string `env:"PRICE_PRO_YEARLY"`

	AddOnCityMonthly       string `env:"PRICE_ADDON_CITY_MONTHLY"`
	AddOnCityYearly        string `env:"PRICE_ADDON_CITY_YEARLY"`
	AddOnHighwayMonthly    string `env:"PRICE_ADDON_HIGHWAY_MONTHLY"`
	AddOnHighwayYearly     string `env:"PRICE_ADDON_HIGHWAY_YEARLY"`
	AddOnBestFinderMonthly string `env:"PRICE_ADDON_BESTFINDER_MONTHLY"`
	AddOnBestFinderYearly  string `env:"PRICE_ADDON_BESTFINDER_YEARLY"`
	AddOnSafetyMonthly     string `env:"PRICE_ADDON_SAFETY_MONTHLY"`
	AddOnSafetyYearly      string `env:"PRICE_ADDON_SAFETY_YEARLY"`
	AddOnCBMonthly         string `env:"PRICE_ADDON_CB_MONTHLY"`
	AddOnCBYearly          string `env:"PRICE_ADDON_CB_YEARLY"`
	AddOnVoiceMonthly      string `env:"PRICE_ADDON_VOICE_MONTHLY"`
	AddOnVoiceYearly       string `env:"PRICE_ADDON_VOICE_YEARLY"`
	AddOnAgentMonthly      string `env:"PRICE_ADDON_AGENT_MONTHLY"`
	AddOnAgentYearly       string `env:"PRICE_ADDON_AGENT_YEARLY"`
	AddOnPayMonthly        string `env:"PRICE_ADDON_PAY_MONTHLY"`
	AddOnPayYearly         string `env:"PRICE_ADDON_PAY_YEARLY"`
	AddOnScoreMonthly      string `env:"PRICE_ADDON_SCORE_MONTHLY"`
	AddOnScoreYearly       string `env:"PRICE_ADDON_SCORE_YEARLY"`
}

// MissingPriceError names the configuration keys a checkout request needed
// but the environment did not provide. Failing loud beats checking out the
// wrong amount.
type MissingPriceError struct {
	Keys []string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("missing price configuration: %s", strings.Join(e.Keys, ", "))
}

// PlanKey returns the environment key for a plan price.
func PlanKey(p Plan, c Cycle) string {
	return fmt.Sprintf("PRICE_%s_%s", p, strings.ToUpper(string(c)))
}

// AddOnKey returns the environment key for an add-on price.
func AddOnKey(a AddOn, c Cycle) string {
	return fmt.Sprintf("PRICE_ADDON_%s_%s", strings.ToUpper(string(a)), strings.ToUpper(string(c)))
}

func (t PriceTable) lookup() map[string]string {
	return map[string]string{
		"PRICE_ESSENTIALS_MONTHLY": t.EssentialsMonthly,
		"PRICE_ESSENTIALS_YEARLY":  t.EssentialsYearly,
		"PRICE_PRO_MONTHLY":        t.ProMonthly,
		"PRICE_PRO_YEARLY":         t.ProYearly,

		"PRICE_ADDON_CITY_MONTHLY":       t.AddOnCityMonthly,
		"PRICE_ADDON_CITY_YEARLY":        t.AddOnCityYearly,
		"PRICE_ADDON_HIGHWAY_MONTHLY":    t.AddOnHighwayMonthly,
		"PRICE_ADDON_HIGHWAY_YEARLY":     t.AddOnHighwayYearly,
		"PRICE_ADDON_BESTFINDER_MONTHLY": t.AddOnBestFinderMonthly,
		"PRICE_ADDON_BESTFINDER_YEARLY":  t.AddOnBestFinderYearly,
		"PRICE_ADDON_SAFETY_MONTHLY":     t.AddOnSafetyMonthly,
		"PRICE_ADDON_SAFETY_YEARLY":      t.AddOnSafetyYearly,
		"PRICE_ADDON_CB_MONTHLY":         t.AddOnCBMonthly,
		"PRICE_ADDON_CB_YEARLY":          t.AddOnCBYearly,
		"PRICE_ADDON_VOICE_MONTHLY":      t.AddOnVoiceMonthly,
		"PRICE_ADDON_VOICE_YEARLY":       t.AddOnVoiceYearly,
		"PRICE_ADDON_AGENT_MONTHLY":      t.AddOnAgentMonthly,
		"PRICE_ADDON_AGENT_YEARLY":       t.AddOnAgentYearly,
		"PRICE_ADDON_PAY_MONTHLY":        t.AddOnPayMonthly,
		"PRICE_ADDON_PAY_YEARLY":         t.AddOnPayYearly,
		"PRICE_ADDON_SCORE_MONTHLY":      t.AddOnScoreMonthly,
		"PRICE_ADDON_SCORE_YEARLY":       t.AddOnScoreYearly,
	}
}

// LineItems resolves a plan and add-on selection into an ordered line-item
// list: the plan first, then add-ons in request order, quantity 1 each. When
// any required price identifier is absent the returned *MissingPriceError
// names every missing key and no provider call should be made.
func (t PriceTable) LineItems(plan Plan, cycle Cycle, addOns []AddOn) ([]LineItem, error) {
	prices := t.lookup()
	var missing []string

	items := make([]LineItem, 0, 1+len(addOns))

	planKey := PlanKey(plan, cycle)
	if id := prices[planKey]; id != "" {
		items = append(items, LineItem{PriceID: id, Quantity: 1})
	} else {
		missing = append(missing, planKey)
	}

	for _, a := range addOns {
		key := AddOnKey(a, cycle)
		if id := prices[key]; id != "" {
			items = append(items, LineItem{PriceID: id, Quantity: 1})
		} else {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingPriceError{Keys: missing}
	}
	return items, nil
}

// Validate checks that at least the base plan prices are configured.
// Intended as a startup sanity check; add-on gaps only fail the requests
// that select them.
func (t PriceTable) Validate() error {
	var missing []string
	prices := t.lookup()
	for _, plan := range []Plan{PlanEssentials, PlanPro} {
		for _, cycle := range []Cycle{CycleMonthly, CycleYearly} {
			key := PlanKey(plan, cycle)
			if prices[key] == "" {
				missing = append(missing, key)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingPriceError{Keys: missing}
	}
	return nil
}
