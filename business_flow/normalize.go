// Package businessflow contains the core business logic for tariff ingestion and export
package businessflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wbtools/tariff-sync/app/dto"
	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/utils"
)

// TariffCandidate is a normalized fact row still keyed by the warehouse
// dedupe key; the surrogate id is resolved later against the store.
type TariffCandidate struct {
	WarehouseKey string
	DtTillMax    *time.Time

	BoxDeliveryBase     *string
	BoxDeliveryCoefExpr *int
	BoxDeliveryLiter    *string

	BoxDeliveryMpBase     *string
	BoxDeliveryMpCoefExpr *int
	BoxDeliveryMpLiter    *string

	BoxStorageBase     *string
	BoxStorageCoefExpr *int
	BoxStorageLiter    *string

	SourcePayload json.RawMessage
}

// NormalizedPayload is the output of normalizing one raw feed response
type NormalizedPayload struct {
	Raw        json.RawMessage
	Warehouses []*models.Warehouse
	Tariffs    []*TariffCandidate
}

// NormalizeText trims, collapses internal whitespace runs to a single space,
// and lowercases. The result is a dedupe key component.
func NormalizeText(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// NormalizeKey builds the warehouse dedupe key from raw name and geo name
func NormalizeKey(name, geoName string) string {
	return NormalizeText(name) + "|" + NormalizeText(geoName)
}

// ParseNullableInteger parses a coefficient-expression field. The feed is
// treated as noisy for this field class: empty string, a lone "-" and any
// non-numeric value all yield nil rather than an error.
func ParseNullableInteger(value string) *int {
	normalized := strings.TrimSpace(value)
	if normalized == "" || normalized == "-" {
		return nil
	}
	parsed, err := strconv.Atoi(normalized)
	if err != nil {
		return nil
	}
	return &parsed
}

// ParseNullableDecimal parses a monetary/liter field to the canonical
// 4-decimal-place representation. Comma decimal separators are accepted;
// empty string, "-" and anything unparseable yield nil. Rounding is half
// away from zero.
func ParseNullableDecimal(value string) *string {
	normalized := strings.TrimSpace(value)
	if normalized == "" || normalized == "-" {
		return nil
	}
	normalized = strings.ReplaceAll(normalized, ",", ".")
	parsed, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil
	}
	return utils.ToPtr(parsed.StringFixed(4))
}

// parseNullableDate parses a YYYY-MM-DD feed date; blank or malformed
// values yield nil.
func parseNullableDate(value string) *time.Time {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return nil
	}
	parsed, err := utils.ParseDate(normalized)
	if err != nil {
		return nil
	}
	return &parsed
}

// NormalizePayload validates the feed response shape and converts each raw
// warehouse item into a warehouse upsert candidate plus a tariff fact
// candidate. Duplicate dedupe keys within one batch resolve last-write-wins:
// later feed items overwrite earlier ones while the key keeps its first-seen
// position, so output order is deterministic.
//
// A record without a usable warehouse name aborts the whole batch: dedupe is
// impossible without identity, and nothing has been persisted yet.
func NormalizePayload(raw json.RawMessage, resp *dto.BoxTariffsResponse) (*NormalizedPayload, error) {
	if resp == nil || resp.Response == nil || resp.Response.Data == nil || resp.Response.Data.WarehouseList == nil {
		return nil, ErrMalformedPayload
	}
	data := resp.Response.Data

	dtTillMax := parseNullableDate(data.ValidUntilDate)

	keyOrder := make([]string, 0, len(data.WarehouseList))
	warehouseByKey := make(map[string]*models.Warehouse, len(data.WarehouseList))
	tariffByKey := make(map[string]*TariffCandidate, len(data.WarehouseList))

	for i, item := range data.WarehouseList {
		if item == nil {
			continue
		}
		if strings.TrimSpace(item.WarehouseName) == "" {
			return nil, fmt.Errorf("item %d: %w", i, ErrMissingWarehouseName)
		}

		key := NormalizeKey(item.WarehouseName, item.GeoName)
		if _, exists := warehouseByKey[key]; !exists {
			keyOrder = append(keyOrder, key)
		}

		var geoName *string
		if item.GeoName != "" {
			geoName = utils.ToPtr(item.GeoName)
		}

		warehouseByKey[key] = &models.Warehouse{
			Name:        item.WarehouseName,
			GeoName:     geoName,
			NameNorm:    NormalizeText(item.WarehouseName),
			GeoNameNorm: NormalizeText(item.GeoName),
		}

		sourcePayload, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot source record: %w", err)
		}

		tariffByKey[key] = &TariffCandidate{
			WarehouseKey: key,
			DtTillMax:    dtTillMax,

			BoxDeliveryBase:     ParseNullableDecimal(item.BoxDeliveryBase),
			BoxDeliveryCoefExpr: ParseNullableInteger(item.BoxDeliveryCoefExpr),
			BoxDeliveryLiter:    ParseNullableDecimal(item.BoxDeliveryLiter),

			BoxDeliveryMpBase:     ParseNullableDecimal(item.BoxDeliveryMarketplaceBase),
			BoxDeliveryMpCoefExpr: ParseNullableInteger(item.BoxDeliveryMarketplaceCoef),
			BoxDeliveryMpLiter:    ParseNullableDecimal(item.BoxDeliveryMarketplaceLtr),

			BoxStorageBase:     ParseNullableDecimal(item.BoxStorageBase),
			BoxStorageCoefExpr: ParseNullableInteger(item.BoxStorageCoefExpr),
			BoxStorageLiter:    ParseNullableDecimal(item.BoxStorageLiter),

			SourcePayload: sourcePayload,
		}
	}

	normalized := &NormalizedPayload{
		Raw:        raw,
		Warehouses: make([]*models.Warehouse, 0, len(keyOrder)),
		Tariffs:    make([]*TariffCandidate, 0, len(keyOrder)),
	}
	for _, key := range keyOrder {
		normalized.Warehouses = append(normalized.Warehouses, warehouseByKey[key])
		normalized.Tariffs = append(normalized.Tariffs, tariffByKey[key])
	}

	return normalized, nil
}
