package listener

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiscoverContracts_Paginates(t *testing.T) {
	var callCount int
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if callCount == 1 {
			resp := contractsResp{
				Results: []contractRef{
					{Ticker: "O:AAPL260117C00230000", UnderlyingTicker: "AAPL"},
					{Ticker: "O:ZZZZ260117C00230000", UnderlyingTicker: "ZZZZ"},
				},
				NextURL: srv.URL + "/page2",
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		resp := contractsResp{Results: []contractRef{{Ticker: "O:AAPL260117P00230000", UnderlyingTicker: "AAPL"}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	d := &ContractDiscoverer{APIKey: "test", Client: srv.Client(), BaseURL: srv.URL}
	symbols, err := d.DiscoverContracts("AAPL", time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Equal(t, []string{"O:AAPL260117C00230000", "O:AAPL260117P00230000"}, symbols)
	require.Equal(t, 2, callCount)
}

func TestDiscoverContracts_ErrorStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	d := &ContractDiscoverer{APIKey: "test", Client: srv.Client(), BaseURL: srv.URL}
	_, err := d.DiscoverContracts("AAPL", time.Now())
	require.Error(t, err)
}
