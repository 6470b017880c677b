package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsPatch_Fields(t *testing.T) {
	var patch SettingsPatch
	body := `{"currency_rate": 16.2, "bank_name": "GCB", "air_rates": {"battery": 14}, "socials": {"instagram": "@jaybesin"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))

	fields := patch.Fields()
	assert.Len(t, fields, 4)
	assert.Equal(t, 16.2, fields["currency_rate"])
	assert.Equal(t, "GCB", fields["bank_name"])
	assert.Equal(t, 14.0, fields["air_rates.battery"])
	assert.Equal(t, "@jaybesin", fields["socials.instagram"])
	assert.NotContains(t, fields, "air_rates.normal")
	assert.NotContains(t, fields, "company_name")
}

func TestSettingsPatch_Validate(t *testing.T) {
	zero := 0.0
	negative := -1.0
	ok := 15.8

	assert.NoError(t, SettingsPatch{CurrencyRate: &ok}.Validate())
	assert.ErrorIs(t, SettingsPatch{CurrencyRate: &zero}.Validate(), ErrInvalidCurrencyRate)
	assert.ErrorIs(t, SettingsPatch{SeaRate: &negative}.Validate(), ErrNegativeRate)

	var patch SettingsPatch
	require.NoError(t, json.Unmarshal([]byte(`{"air_rates": {"express": -2}}`), &patch))
	assert.ErrorIs(t, patch.Validate(), ErrNegativeRate)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 15.8, s.CurrencyRate)
	assert.Equal(t, 450.0, s.SeaRate)
	assert.Equal(t, 12.0, s.AirRates.Normal)
	assert.NotEmpty(t, s.BankName)
	assert.NotEmpty(t, s.AccountNumber)
}
