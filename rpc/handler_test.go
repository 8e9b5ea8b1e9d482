package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/engine"
	"github.com/tolelom/cryptowarriors/events"
	"github.com/tolelom/cryptowarriors/indexer"
	"github.com/tolelom/cryptowarriors/internal/testutil"
)

const (
	chainID = "test-chain"
	token   = "secret"
)

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

type fixture struct {
	eng     *engine.Engine
	mempool *core.Mempool
	url     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	emitter := events.NewEmitter()
	eng := engine.New(testutil.NewStateDB(), chainID, core.DefaultGameParams(), emitter)
	require.NoError(t, eng.InitGenesis(core.Genesis{
		ChainID:           chainID,
		Admin:             "admin",
		AuthorizedCallers: []string{core.GameEngineAddress},
		Alloc:             map[string]core.Allocation{"alice": {War: 1000, Native: core.NativeUnit}},
	}))
	bc := core.NewBlockchain(testutil.NewBlockStore())
	require.NoError(t, bc.Init())
	mp := core.NewMempool(chainID)
	idx := indexer.New(testutil.NewMemDB(), emitter)

	srv := NewServer("127.0.0.1:0", NewHandler(eng, bc, mp, idx, chainID), token)
	srv.Mount("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &fixture{eng: eng, mempool: mp, url: ts.URL}
}

func (f *fixture) call(t *testing.T, method string, params any) rawResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(Request{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
	require.NoError(t, err)
	return f.post(t, body, "Bearer "+token)
}

func (f *fixture) post(t *testing.T, body []byte, auth string) rawResponse {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.url, bytes.NewReader(body))
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out rawResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"getBlockHeight"}`)

	resp := f.post(t, body, "")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)

	resp = f.post(t, body, "Bearer wrong")
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)

	resp = f.post(t, body, "Bearer "+token)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "0", string(resp.Result))
}

func TestEnvelopeErrors(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, []byte(`{not json`), "Bearer "+token)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)

	resp = f.post(t, []byte(`{"jsonrpc":"1.0","id":1,"method":"getBlockHeight"}`), "Bearer "+token)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)

	resp = f.call(t, "noSuchMethod", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestOnlyPost(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMountedRouteSkipsAuth(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.url + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestWarriorQueries(t *testing.T) {
	f := newFixture(t)
	id, err := f.eng.CreateWarrior("alice", "Aldric", core.ClassKnight)
	require.NoError(t, err)

	resp := f.call(t, "getWarrior", map[string]any{"id": id})
	require.Nil(t, resp.Error)
	var w core.Warrior
	require.NoError(t, json.Unmarshal(resp.Result, &w))
	assert.Equal(t, "Aldric", w.Name)
	assert.Equal(t, "alice", w.Owner)

	resp = f.call(t, "getWarriorsByOwner", map[string]any{"address": "alice"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "[0]", string(resp.Result))

	resp = f.call(t, "getWarriorsByOwner", map[string]any{"address": "nobody"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "[]", string(resp.Result))

	resp = f.call(t, "getBalance", map[string]any{"address": "alice"})
	require.Nil(t, resp.Error)
	var acc core.Account
	require.NoError(t, json.Unmarshal(resp.Result, &acc))
	assert.Equal(t, uint64(900), acc.Balance)

	resp = f.call(t, "getTotalWarriors", nil)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "1", string(resp.Result))
}

func TestErrorKindsMapToCodes(t *testing.T) {
	f := newFixture(t)

	resp := f.call(t, "getWarrior", map[string]any{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	resp = f.call(t, "getWarrior", map[string]any{"id": 42})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)

	resp = f.call(t, "getBattle", map[string]any{"id": 0})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)

	resp = f.call(t, "getBalance", map[string]any{"address": ""})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)

	resp = f.call(t, "getLeaderboard", map[string]any{"limit": 0})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, CodeInvalidParams, codeFor(core.ErrInvalidName))
	assert.Equal(t, CodeForbidden, codeFor(core.ErrNotOwner))
	assert.Equal(t, CodeInsufficientFunds, codeFor(core.ErrInsufficientBalance))
	assert.Equal(t, CodeStateConflict, codeFor(core.ErrAlreadyQueued))
	assert.Equal(t, CodeNotFound, codeFor(core.ErrWarriorNotFound))
	assert.Equal(t, CodeInternalError, codeFor(assert.AnError))
}

func TestGameCounters(t *testing.T) {
	f := newFixture(t)

	resp := f.call(t, "getQueueLength", nil)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "0", string(resp.Result))

	resp = f.call(t, "getBattleCount", nil)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "0", string(resp.Result))

	resp = f.call(t, "getLeaderboard", nil)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"accounts":[],"wins":[]}`, string(resp.Result))

	resp = f.call(t, "getBattlesByPlayer", map[string]any{"address": "alice"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, "[]", string(resp.Result))

	resp = f.call(t, "getBlock", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestSendTx(t *testing.T) {
	f := newFixture(t)
	priv, addr := testutil.KeyPair(t)

	tx, err := core.NewTransaction(chainID, core.TxCreateWarrior, addr, 0, 0,
		core.CreateWarriorPayload{Name: "Mira", Class: core.ClassMage})
	require.NoError(t, err)
	tx.Sign(priv)

	resp := f.call(t, "sendTx", tx)
	require.Nil(t, resp.Error)
	var out map[string]string
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	assert.Equal(t, tx.ID, out["tx_id"])
	assert.Equal(t, 1, f.mempool.Size())

	resp = f.call(t, "sendTx", tx)
	require.NotNil(t, resp.Error, "duplicate tx")

	other, err := core.NewTransaction("other-chain", core.TxCreateWarrior, addr, 1, 0,
		core.CreateWarriorPayload{Name: "Mira", Class: core.ClassMage})
	require.NoError(t, err)
	other.Sign(priv)
	resp = f.call(t, "sendTx", other)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestSendTxRejectsTamperedPayload(t *testing.T) {
	f := newFixture(t)
	priv, addr := testutil.KeyPair(t)
	tx, err := core.NewTransaction(chainID, core.TxTransfer, addr, 0, 0,
		core.TransferPayload{To: "bob", Amount: 1})
	require.NoError(t, err)
	tx.Sign(priv)
	tx.Payload = json.RawMessage(`{"to":"bob","amount":1000}`)

	resp := f.call(t, "sendTx", tx)
	require.NotNil(t, resp.Error)
	assert.Equal(t, 0, f.mempool.Size())
}
