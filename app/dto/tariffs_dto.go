package dto

// Wire types for the WB box-tariffs feed. Every measure arrives as a string,
// including the numeric ones; normalization happens downstream.

// BoxTariffWarehouseItem is one raw warehouse record from the feed
type BoxTariffWarehouseItem struct {
	BoxDeliveryBase            string `json:"boxDeliveryBase"`
	BoxDeliveryCoefExpr        string `json:"boxDeliveryCoefExpr"`
	BoxDeliveryLiter           string `json:"boxDeliveryLiter"`
	BoxDeliveryMarketplaceBase string `json:"boxDeliveryMarketplaceBase"`
	BoxDeliveryMarketplaceCoef string `json:"boxDeliveryMarketplaceCoefExpr"`
	BoxDeliveryMarketplaceLtr  string `json:"boxDeliveryMarketplaceLiter"`
	BoxStorageBase             string `json:"boxStorageBase"`
	BoxStorageCoefExpr         string `json:"boxStorageCoefExpr"`
	BoxStorageLiter            string `json:"boxStorageLiter"`
	GeoName                    string `json:"geoName"`
	WarehouseName              string `json:"warehouseName"`
}

// BoxTariffsData is the payload body of one feed response
type BoxTariffsData struct {
	ValidUntilDate string                    `json:"validUntilDate"`
	WarehouseList  []*BoxTariffWarehouseItem `json:"warehouseList"`
}

// BoxTariffsResponse is the top-level feed document
type BoxTariffsResponse struct {
	Response *struct {
		Data *BoxTariffsData `json:"data"`
	} `json:"response"`
}

// IngestTariffsRequest carries the target date for one pipeline invocation
type IngestTariffsRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// IngestResult is the summary returned by one pipeline invocation
type IngestResult struct {
	TotalWarehouses int `json:"total_warehouses"`
	UpsertedTariffs int `json:"upserted_tariffs"`
	SkippedTariffs  int `json:"skipped_tariffs"`
}
