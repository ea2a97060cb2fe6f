// Package testing provides test utilities and database setup for testing the tariff sync service
package testing

import (
	"encoding/json"
	"fmt"

	"github.com/wbtools/tariff-sync/app/dto"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestWarehouse inserts one warehouse and returns it
func (tf *TestFixtures) CreateTestWarehouse(name, geoName string) (*models.Warehouse, error) {
	var geo *string
	if geoName != "" {
		geo = utils.ToPtr(geoName)
	}

	warehouse := &models.Warehouse{
		Name:        name,
		GeoName:     geo,
		NameNorm:    businessflow.NormalizeText(name),
		GeoNameNorm: businessflow.NormalizeText(geoName),
	}
	if err := tf.DB.DB.Create(warehouse).Error; err != nil {
		return nil, fmt.Errorf("failed to insert warehouse %s: %w", name, err)
	}
	return warehouse, nil
}

// SampleFeedItem builds one raw feed record with the given identity and measures
func SampleFeedItem(name, geoName, deliveryBase, deliveryCoef, deliveryLiter string) *dto.BoxTariffWarehouseItem {
	return &dto.BoxTariffWarehouseItem{
		WarehouseName:              name,
		GeoName:                    geoName,
		BoxDeliveryBase:            deliveryBase,
		BoxDeliveryCoefExpr:        deliveryCoef,
		BoxDeliveryLiter:           deliveryLiter,
		BoxDeliveryMarketplaceBase: "40",
		BoxDeliveryMarketplaceCoef: "125",
		BoxDeliveryMarketplaceLtr:  "8,5",
		BoxStorageBase:             "0,12",
		BoxStorageCoefExpr:         "100",
		BoxStorageLiter:            "0,07",
	}
}

// SampleFeedResponse builds a complete feed document around the given items
func SampleFeedResponse(validUntil string, items ...*dto.BoxTariffWarehouseItem) ([]byte, *dto.BoxTariffsResponse, error) {
	doc := map[string]any{
		"response": map[string]any{
			"data": map[string]any{
				"validUntilDate": validUntil,
				"warehouseList":  items,
			},
		},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build sample feed: %w", err)
	}

	var decoded dto.BoxTariffsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, nil, fmt.Errorf("failed to decode sample feed: %w", err)
	}

	return raw, &decoded, nil
}
