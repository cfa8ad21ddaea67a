package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
	"github.com/josh-kwaku/cashflow-ledger/internal/service"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

func TestMalformedAmountKeepsLedgerReadable(t *testing.T) {
	reg := store.NewRegistry(store.NewMemoryPersister())
	ledgerSvc := service.NewLedgerService(reg, nil, nil)
	importSvc := service.NewImportService(reg, reconcile.NewEngine(), nil, nil, nil, nil, nil)
	imports := NewImportHandler(importSvc, ledgerSvc, 1<<20)
	ledger := NewLedgerHandler(ledgerSvc)

	rec := serve("POST /api/v1/ledger/import", imports.MergeBatch, authedRequest(http.MethodPost, "/api/v1/ledger/import",
		jsonBody(`{"transactions":[{"date":"2024-01-05","description":"Garbled row","amount":"abc","type":"expense"},{"date":"2024-01-06","description":"Salary","amount":"5000","type":"income"}]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	rec = serve("GET /api/v1/ledger/snapshot", ledger.GetSnapshot, authedRequest(http.MethodGet, "/api/v1/ledger/snapshot", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	var snap map[string]*float64
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Nil(t, snap["monthlyExpenses"])
	require.NotNil(t, snap["totalAssets"])
	assert.Equal(t, 0.0, *snap["totalAssets"])

	rec = serve("GET /api/v1/ledger", ledger.GetLedger, authedRequest(http.MethodGet, "/api/v1/ledger", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	var body struct {
		Transactions []struct {
			Description string   `json:"description"`
			Amount      *float64 `json:"amount"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Transactions, 2)
	amounts := map[string]*float64{}
	for _, tx := range body.Transactions {
		amounts[tx.Description] = tx.Amount
	}
	assert.Nil(t, amounts["Garbled row"])
	require.NotNil(t, amounts["Salary"])
	assert.Equal(t, 5000.0, *amounts["Salary"])
}

func TestRespondJSON_EncodeFailureIs500(t *testing.T) {
	rec := serve("GET /x", func(w http.ResponseWriter, _ *http.Request) {
		RespondSuccess(w, http.StatusOK, make(chan int))
	}, authedRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrInternalError.Code, env.Error.Code)
}
