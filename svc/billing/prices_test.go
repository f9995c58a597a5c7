package billing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/svc/billing"
)

func fullPriceTable() billing.PriceTable {
	return billing.PriceTable{
		EssentialsMonthly: "price_ess_m",
		EssentialsYearly:  "price_ess_y",
		ProMonthly:        "price_pro_m",
		ProYearly:         "price_pro_y",

		AddOnCityMonthly:       "price_city_m",
		AddOnCityYearly:        "price_city_y",
		AddOnHighwayMonthly:    "price_hwy_m",
		AddOnHighwayYearly:     "price_hwy_y",
		AddOnBestFinderMonthly: "price_bf_m",
		AddOnBestFinderYearly:  "price_bf_y",
		AddOnSafetyMonthly:     "price_safety_m",
		AddOnSafetyYearly:      "price_safety_y",
		AddOnCBMonthly:         "price_cb_m",
		AddOnCBYearly:          "price_cb_y",
		AddOnVoiceMonthly:      "price_voice_m",
		AddOnVoiceYearly:       "price_voice_y",
		AddOnAgentMonthly:      "price_agent_m",
		AddOnAgentYearly:       "price_agent_y",
		AddOnPayMonthly:        "price_pay_m",
		AddOnPayYearly:         "price_pay_y",
		AddOnScoreMonthly:      "price_score_m",
		AddOnScoreYearly:       "price_score_y",
	}
}

func TestPriceTable_LineItems(t *testing.T) {
	t.Parallel()

	t.Run("plan first then add-ons in request order", func(t *testing.T) {
		t.Parallel()

		table := fullPriceTable()
		items, err := table.LineItems(billing.PlanPro, billing.CycleMonthly, []billing.AddOn{
			billing.AddOnVoice, billing.AddOnCity,
		})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "price_pro_m", items[0].PriceID)
		assert.Equal(t, "price_voice_m", items[1].PriceID)
		assert.Equal(t, "price_city_m", items[2].PriceID)
		for _, item := range items {
			assert.EqualValues(t, 1, item.Quantity)
		}
	})

	t.Run("yearly cycle selects yearly prices", func(t *testing.T) {
		t.Parallel()

		table := fullPriceTable()
		items, err := table.LineItems(billing.PlanEssentials, billing.CycleYearly, nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "price_ess_y", items[0].PriceID)
	})

	t.Run("collects every missing key", func(t *testing.T) {
		t.Parallel()

		table := fullPriceTable()
		table.ProYearly = ""
		table.AddOnPayYearly = ""

		items, err := table.LineItems(billing.PlanPro, billing.CycleYearly, []billing.AddOn{
			billing.AddOnCity, billing.AddOnPay,
		})
		require.Error(t, err)
		assert.Nil(t, items)

		var missing *billing.MissingPriceError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"PRICE_PRO_YEARLY", "PRICE_ADDON_PAY_YEARLY"}, missing.Keys)
		assert.Contains(t, missing.Error(), "PRICE_PRO_YEARLY")
	})

	t.Run("every add-on has a configured price both cycles", func(t *testing.T) {
		t.Parallel()

		table := fullPriceTable()
		for _, cycle := range []billing.Cycle{billing.CycleMonthly, billing.CycleYearly} {
			items, err := table.LineItems(billing.PlanEssentials, cycle, billing.AllAddOns())
			require.NoError(t, err)
			assert.Len(t, items, 1+len(billing.AllAddOns()))
		}
	})
}

func TestPriceTable_Validate(t *testing.T) {
	t.Parallel()

	t.Run("complete table passes", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, fullPriceTable().Validate())
	})

	t.Run("missing base plan price fails", func(t *testing.T) {
		t.Parallel()

		table := fullPriceTable()
		table.EssentialsMonthly = ""

		err := table.Validate()
		require.Error(t, err)

		var missing *billing.MissingPriceError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"PRICE_ESSENTIALS_MONTHLY"}, missing.Keys)
	})

	t.Run("missing add-on price does not fail startup", func(t *testing.T) {
		t.Parallel()

		table := fullPriceTable()
		table.AddOnCBMonthly = ""
		require.NoError(t, table.Validate())
	})
}

func TestEnumValidation(t *testing.T) {
	t.Parallel()

	assert.True(t, billing.PlanEssentials.Valid())
	assert.True(t, billing.PlanPro.Valid())
	assert.False(t, billing.Plan("ENTERPRISE").Valid())
	assert.False(t, billing.Plan("essentials").Valid())

	assert.True(t, billing.CycleMonthly.Valid())
	assert.True(t, billing.CycleYearly.Valid())
	assert.False(t, billing.Cycle("weekly").Valid())

	for _, a := range billing.AllAddOns() {
		assert.True(t, a.Valid(), string(a))
	}
	assert.False(t, billing.AddOn("teleport").Valid())
}
