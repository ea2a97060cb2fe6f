package businessflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbtools/tariff-sync/app/dto"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "склад коледино", NormalizeText("  Склад   Коледино "))
	assert.Equal(t, "a b c", NormalizeText("A\tB\nC"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "коледино|центральный фо", NormalizeKey(" Коледино ", "Центральный  ФО"))
	// Key collapses case and whitespace differences into one identity
	assert.Equal(t,
		NormalizeKey("Коледино", "Центральный ФО"),
		NormalizeKey("  КОЛЕДИНО ", "центральный   фо"),
	)
}

func TestParseNullableInteger(t *testing.T) {
	assert.Nil(t, ParseNullableInteger(""))
	assert.Nil(t, ParseNullableInteger("  "))
	assert.Nil(t, ParseNullableInteger("-"))
	assert.Nil(t, ParseNullableInteger("abc"))
	assert.Nil(t, ParseNullableInteger("12.5"))

	v := ParseNullableInteger(" 125 ")
	require.NotNil(t, v)
	assert.Equal(t, 125, *v)

	neg := ParseNullableInteger("-3")
	require.NotNil(t, neg)
	assert.Equal(t, -3, *neg)
}

func TestParseNullableDecimal(t *testing.T) {
	assert.Nil(t, ParseNullableDecimal(""))
	assert.Nil(t, ParseNullableDecimal("-"))
	assert.Nil(t, ParseNullableDecimal("abc"))

	cases := map[string]string{
		"100,50":   "100.5000",
		"100.50":   "100.5000",
		" 48 ":     "48.0000",
		"0,07":     "0.0700",
		"12.34567": "12.3457",
		"-1,5":     "-1.5000",
	}
	for input, want := range cases {
		got := ParseNullableDecimal(input)
		require.NotNil(t, got, "input %q", input)
		assert.Equal(t, want, *got, "input %q", input)
	}
}

func TestParseNullableDecimalIdempotent(t *testing.T) {
	// Re-parsing a canonical value must return it unchanged
	first := ParseNullableDecimal("46,3456789")
	require.NotNil(t, first)
	second := ParseNullableDecimal(*first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func buildResponse(t *testing.T, validUntil string, items ...*dto.BoxTariffWarehouseItem) (json.RawMessage, *dto.BoxTariffsResponse) {
	t.Helper()

	doc := map[string]any{
		"response": map[string]any{
			"data": map[string]any{
				"validUntilDate": validUntil,
				"warehouseList":  items,
			},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded dto.BoxTariffsResponse
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return raw, &decoded
}

func feedItem(name, geo, deliveryBase string) *dto.BoxTariffWarehouseItem {
	return &dto.BoxTariffWarehouseItem{
		WarehouseName:              name,
		GeoName:                    geo,
		BoxDeliveryBase:            deliveryBase,
		BoxDeliveryCoefExpr:        "125",
		BoxDeliveryLiter:           "11,2",
		BoxDeliveryMarketplaceBase: "40",
		BoxDeliveryMarketplaceCoef: "125",
		BoxDeliveryMarketplaceLtr:  "8,5",
		BoxStorageBase:             "0,12",
		BoxStorageCoefExpr:         "100",
		BoxStorageLiter:            "0,07",
	}
}

func TestNormalizePayloadMalformedShape(t *testing.T) {
	_, err := NormalizePayload([]byte(`{}`), &dto.BoxTariffsResponse{})
	assert.True(t, IsMalformedPayload(err))

	_, err = NormalizePayload(nil, nil)
	assert.True(t, IsMalformedPayload(err))
}

func TestNormalizePayloadMissingNameAborts(t *testing.T) {
	raw, resp := buildResponse(t, "2026-03-31",
		feedItem("Коледино", "Центральный ФО", "48"),
		feedItem("   ", "Центральный ФО", "50"),
	)

	_, err := NormalizePayload(raw, resp)
	assert.True(t, IsMissingWarehouseName(err))
}

func TestNormalizePayloadDedupeLastWriteWins(t *testing.T) {
	raw, resp := buildResponse(t, "2026-03-31",
		feedItem("Коледино", "Центральный ФО", "48"),
		feedItem("Тула", "Центральный ФО", "52"),
		feedItem("  КОЛЕДИНО ", "центральный фо", "99"),
	)

	normalized, err := NormalizePayload(raw, resp)
	require.NoError(t, err)

	// Duplicate collapses, first-seen position survives
	require.Len(t, normalized.Warehouses, 2)
	require.Len(t, normalized.Tariffs, 2)
	assert.Equal(t, "коледино", normalized.Warehouses[0].NameNorm)
	assert.Equal(t, "тула", normalized.Warehouses[1].NameNorm)

	// Later record's values overwrite the earlier ones
	assert.Equal(t, "  КОЛЕДИНО ", normalized.Warehouses[0].Name)
	require.NotNil(t, normalized.Tariffs[0].BoxDeliveryBase)
	assert.Equal(t, "99.0000", *normalized.Tariffs[0].BoxDeliveryBase)
}

func TestNormalizePayloadParsesMeasures(t *testing.T) {
	item := feedItem("Тула", "Центральный ФО", "100,50")
	item.BoxStorageCoefExpr = "-"
	item.BoxStorageLiter = ""
	raw, resp := buildResponse(t, "2026-03-31", item)

	normalized, err := NormalizePayload(raw, resp)
	require.NoError(t, err)
	require.Len(t, normalized.Tariffs, 1)

	c := normalized.Tariffs[0]
	require.NotNil(t, c.BoxDeliveryBase)
	assert.Equal(t, "100.5000", *c.BoxDeliveryBase)
	require.NotNil(t, c.BoxDeliveryCoefExpr)
	assert.Equal(t, 125, *c.BoxDeliveryCoefExpr)
	assert.Nil(t, c.BoxStorageCoefExpr)
	assert.Nil(t, c.BoxStorageLiter)

	require.NotNil(t, c.DtTillMax)
	assert.Equal(t, "2026-03-31", c.DtTillMax.Format("2006-01-02"))

	// Snapshot keeps the raw record for auditability
	assert.Contains(t, string(c.SourcePayload), "100,50")
}

func TestNormalizePayloadBlankDtTillMax(t *testing.T) {
	raw, resp := buildResponse(t, "", feedItem("Тула", "Центральный ФО", "48"))

	normalized, err := NormalizePayload(raw, resp)
	require.NoError(t, err)
	assert.Nil(t, normalized.Tariffs[0].DtTillMax)
}
