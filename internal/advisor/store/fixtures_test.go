package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/internal/model"
)

const yamlFixture = `
products:
  - id: 6f1c2b9e-9d7f-4c55-9a55-0c1d7e1f0a02
    name: Green Auto
    bank: Maple Credit Union
    type: vehicle
    rate_apr: 8.9
    min_income: 25000
    min_credit_score: 620
    tenure_min_months: 12
    tenure_max_months: 72
    prepayment_allowed: true
    disbursal_speed: fast
    docs_level: low
    faq:
      Can I prepay?: Yes, after 6 months.
      nested:
        fee: 2
  - name: Scholar Plus
    bank: First Harbor Bank
    type: education
    rate_apr: 10.25
    min_income: 0
    min_credit_score: 600
`

func TestParseFixturesYAML(t *testing.T) {
	products, err := ParseFixtures([]byte(yamlFixture), ".yaml")
	require.NoError(t, err)
	require.Len(t, products, 2)

	auto := products[0]
	assert.Equal(t, "6f1c2b9e-9d7f-4c55-9a55-0c1d7e1f0a02", auto.ID)
	assert.Equal(t, model.LoanTypeVehicle, auto.Type)
	assert.InDelta(t, 8.9, auto.RateAPR, 1e-9)
	require.NotNil(t, auto.TenureMaxMonths)
	assert.Equal(t, 72, *auto.TenureMaxMonths)
	assert.True(t, auto.PrepaymentAllowed)
	assert.Equal(t, "Yes, after 6 months.", auto.FAQ["Can I prepay?"])
	assert.Equal(t, map[string]any{"fee": float64(2)}, auto.FAQ["nested"])

	scholar := products[1]
	_, err = uuid.Parse(scholar.ID)
	assert.NoError(t, err, "missing id gets a uuid")
	assert.Equal(t, FixtureID("First Harbor Bank", "Scholar Plus"), scholar.ID)
	assert.Equal(t, model.DisbursalStandard, scholar.DisbursalSpeed)
	assert.Equal(t, "standard", scholar.DocsLevel)
	assert.Nil(t, scholar.TenureMinMonths)
}

func TestFixtureIDIsStable(t *testing.T) {
	first, err := ParseFixtures([]byte(yamlFixture), ".yaml")
	require.NoError(t, err)
	second, err := ParseFixtures([]byte(yamlFixture), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, first[1].ID, second[1].ID)

	assert.Equal(t, FixtureID("Harbor", "Home Saver"), FixtureID(" harbor ", "HOME SAVER"))
	assert.NotEqual(t, FixtureID("Harbor", "Home Saver"), FixtureID("Harbor", "Home Saver Plus"))
	assert.NotEqual(t, FixtureID("ab", "c"), FixtureID("a", "bc"))
}

func TestParseFixturesJSON(t *testing.T) {
	data := `{"products":[{"name":"Home Saver","bank":"Harbor","type":"home","rate_apr":6.5,"min_income":60000,"min_credit_score":720,"summary":"Fixed rate."}]}`
	products, err := ParseFixtures([]byte(data), ".json")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Summary)
	assert.Equal(t, "Fixed rate.", *products[0].Summary)
}

func TestParseFixturesRejectsInvalidRecords(t *testing.T) {
	data := `
products:
  - name: Missing APR
    bank: B
    type: personal
    min_income: 1
    min_credit_score: 600
  - name: Bad docs
    bank: B
    type: personal
    rate_apr: 9
    min_income: 1
    min_credit_score: 600
    docs_level: none
  - name: Fine
    bank: B
    type: personal
    rate_apr: 9
    min_income: 1
    min_credit_score: 600
`
	_, err := ParseFixtures([]byte(data), ".yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "products[0]")
	assert.Contains(t, err.Error(), "products[1]")
	assert.NotContains(t, err.Error(), "products[2]")
}

func TestParseFixturesUnknownFormat(t *testing.T) {
	_, err := ParseFixtures([]byte("x"), ".toml")
	assert.Error(t, err)
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlFixture), 0o600))

	products, err := LoadFixtures(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
