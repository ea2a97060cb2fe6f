// Package businessflow contains the core business logic for tariff ingestion and export
package businessflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/utils"
)

// BuildTariffRows resolves each candidate's dedupe key to a persisted
// warehouse id and produces the fact rows for the target date. A key absent
// from the mapping is an internal-consistency failure: both sides derive
// from the same batch, so it should never happen.
func BuildTariffRows(tariffDate, fetchedAt time.Time, candidates []*TariffCandidate, idByKey map[string]uint) ([]*models.TariffDaily, error) {
	rows := make([]*models.TariffDaily, 0, len(candidates))
	for _, c := range candidates {
		warehouseID, ok := idByKey[c.WarehouseKey]
		if !ok || warehouseID == 0 {
			return nil, fmt.Errorf("%w: %q", ErrWarehouseIDNotResolved, c.WarehouseKey)
		}

		rows = append(rows, &models.TariffDaily{
			TariffDate:  tariffDate,
			WarehouseID: warehouseID,
			DtTillMax:   c.DtTillMax,
			FetchedAt:   fetchedAt,

			BoxDeliveryBase:     c.BoxDeliveryBase,
			BoxDeliveryCoefExpr: c.BoxDeliveryCoefExpr,
			BoxDeliveryLiter:    c.BoxDeliveryLiter,

			BoxDeliveryMpBase:     c.BoxDeliveryMpBase,
			BoxDeliveryMpCoefExpr: c.BoxDeliveryMpCoefExpr,
			BoxDeliveryMpLiter:    c.BoxDeliveryMpLiter,

			BoxStorageBase:     c.BoxStorageBase,
			BoxStorageCoefExpr: c.BoxStorageCoefExpr,
			BoxStorageLiter:    c.BoxStorageLiter,

			SourcePayload: c.SourcePayload,
		})
	}
	return rows, nil
}

// canonicalDecimal re-canonicalizes a stored decimal to the 4-decimal-place
// representation candidates use, so storage-layer formatting differences
// (trailing zeros, scale) never register as a change.
func canonicalDecimal(value *string) *string {
	if value == nil {
		return nil
	}
	parsed, err := decimal.NewFromString(*value)
	if err != nil {
		return nil
	}
	return utils.ToPtr(parsed.StringFixed(4))
}

// normalizeStoredRow maps a stored fact row into the candidates' canonical
// representation before fingerprinting.
func normalizeStoredRow(row *models.TariffDaily) *models.TariffDaily {
	normalized := *row
	normalized.BoxDeliveryBase = canonicalDecimal(row.BoxDeliveryBase)
	normalized.BoxDeliveryLiter = canonicalDecimal(row.BoxDeliveryLiter)
	normalized.BoxDeliveryMpBase = canonicalDecimal(row.BoxDeliveryMpBase)
	normalized.BoxDeliveryMpLiter = canonicalDecimal(row.BoxDeliveryMpLiter)
	normalized.BoxStorageBase = canonicalDecimal(row.BoxStorageBase)
	normalized.BoxStorageLiter = canonicalDecimal(row.BoxStorageLiter)
	return &normalized
}

// Fingerprint computes the content hash of a fact row over a fixed, explicit
// field order: dt_till_max, then the nine measures in canonical group order
// (delivery base/coef/liter, marketplace base/coef/liter, storage
// base/coef/liter). Identity fields (tariff date, warehouse id) are
// excluded. Values are length-prefixed and nil-tagged so the encoding is
// unambiguous regardless of content.
func Fingerprint(row *models.TariffDaily) string {
	h := sha256.New()

	writeField := func(value *string) {
		if value == nil {
			h.Write([]byte("n;"))
			return
		}
		h.Write([]byte("v" + strconv.Itoa(len(*value)) + ":" + *value + ";"))
	}
	writeInt := func(value *int) {
		if value == nil {
			writeField(nil)
			return
		}
		writeField(utils.ToPtr(strconv.Itoa(*value)))
	}
	writeDate := func(value *time.Time) {
		if value == nil {
			writeField(nil)
			return
		}
		writeField(utils.ToPtr(value.Format(utils.DateLayout)))
	}

	writeDate(row.DtTillMax)

	writeField(row.BoxDeliveryBase)
	writeInt(row.BoxDeliveryCoefExpr)
	writeField(row.BoxDeliveryLiter)

	writeField(row.BoxDeliveryMpBase)
	writeInt(row.BoxDeliveryMpCoefExpr)
	writeField(row.BoxDeliveryMpLiter)

	writeField(row.BoxStorageBase)
	writeInt(row.BoxStorageCoefExpr)
	writeField(row.BoxStorageLiter)

	return hex.EncodeToString(h.Sum(nil))
}

// FilterChanged retains only the candidates whose content differs from the
// stored row for the same warehouse. A candidate with no stored counterpart
// is always retained; an identical fingerprint is a normal skip. Re-running
// ingestion with unchanged upstream data therefore produces zero fact
// writes, which keeps retries and scheduled re-runs cheap.
func FilterChanged(next []*models.TariffDaily, existing []*models.TariffDaily) []*models.TariffDaily {
	existingByWarehouse := make(map[uint]string, len(existing))
	for _, row := range existing {
		existingByWarehouse[row.WarehouseID] = Fingerprint(normalizeStoredRow(row))
	}

	changed := make([]*models.TariffDaily, 0, len(next))
	for _, row := range next {
		stored, ok := existingByWarehouse[row.WarehouseID]
		if ok && stored == Fingerprint(row) {
			continue
		}
		changed = append(changed, row)
	}
	return changed
}
