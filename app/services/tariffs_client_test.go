package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/config"
)

const sampleFeedBody = `{
	"response": {
		"data": {
			"validUntilDate": "2026-03-31",
			"warehouseList": [
				{
					"boxDeliveryBase": "48",
					"boxDeliveryCoefExpr": "125",
					"boxDeliveryLiter": "11,2",
					"boxDeliveryMarketplaceBase": "40",
					"boxDeliveryMarketplaceCoefExpr": "125",
					"boxDeliveryMarketplaceLiter": "8,5",
					"boxStorageBase": "0,12",
					"boxStorageCoefExpr": "100",
					"boxStorageLiter": "0,07",
					"geoName": "Центральный ФО",
					"warehouseName": "Коледино"
				}
			]
		}
	}
}`

func feedConfig(url string) config.WBFeedConfig {
	return config.WBFeedConfig{
		BoxTariffsURL: url,
		AuthToken:     "test-token",
		Timeout:       5 * time.Second,
	}
}

func TestFetchBoxTariffs(t *testing.T) {
	var gotDate, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeedBody))
	}))
	defer server.Close()

	client := NewTariffsClient(feedConfig(server.URL))
	resp, raw, err := client.FetchBoxTariffs(context.Background(), "2026-03-01")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", gotDate)
	assert.Equal(t, "test-token", gotAuth)

	// Raw body is returned verbatim for the audit log
	assert.JSONEq(t, sampleFeedBody, string(raw))

	require.NotNil(t, resp.Response)
	require.NotNil(t, resp.Response.Data)
	require.Len(t, resp.Response.Data.WarehouseList, 1)
	assert.Equal(t, "Коледино", resp.Response.Data.WarehouseList[0].WarehouseName)
	assert.Equal(t, "11,2", resp.Response.Data.WarehouseList[0].BoxDeliveryLiter)
}

func TestFetchBoxTariffsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"title":"too many requests"}`))
	}))
	defer server.Close()

	client := NewTariffsClient(feedConfig(server.URL))
	_, _, err := client.FetchBoxTariffs(context.Background(), "2026-03-01")
	require.Error(t, err)
	assert.True(t, businessflow.IsFetchError(err))

	var fe *businessflow.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusTooManyRequests, fe.Status)
	assert.Contains(t, fe.Body, "too many requests")
}

func TestFetchBoxTariffsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewTariffsClient(feedConfig(server.URL))
	_, _, err := client.FetchBoxTariffs(context.Background(), "2026-03-01")
	assert.True(t, businessflow.IsMalformedPayload(err))
}

func TestMockTariffsClientRecordsDates(t *testing.T) {
	mock, err := NewMockTariffsClient([]byte(sampleFeedBody))
	require.NoError(t, err)

	_, _, err = mock.FetchBoxTariffs(context.Background(), "2026-03-01")
	require.NoError(t, err)
	_, _, err = mock.FetchBoxTariffs(context.Background(), "2026-03-02")
	require.NoError(t, err)

	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, mock.FetchedDates)
}
