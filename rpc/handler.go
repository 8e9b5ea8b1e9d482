package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/engine"
	"github.com/tolelom/cryptowarriors/indexer"
)

const maxLeaderboardLimit = 100

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	engine  *engine.Engine
	bc      *core.Blockchain
	mempool *core.Mempool
	indexer *indexer.Indexer
	chainID string
}

// NewHandler creates an RPC Handler.
func NewHandler(eng *engine.Engine, bc *core.Blockchain, mempool *core.Mempool, idx *indexer.Indexer, chainID string) *Handler {
	return &Handler{engine: eng, bc: bc, mempool: mempool, indexer: idx, chainID: chainID}
}

type addressParams struct {
	Address string `json:"address"`
}

type idParams struct {
	ID *uint64 `json:"id"`
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	switch req.Method {
	case "getBlockHeight":
		return okResponse(req.ID, h.bc.Height())
	case "getBlock":
		return h.getBlock(req)
	case "getReceipt":
		return h.getReceipt(req)
	case "getMempoolSize":
		return okResponse(req.ID, h.mempool.Size())
	case "sendTx":
		return h.sendTx(req)
	case "getParams":
		return okResponse(req.ID, h.engine.Params())

	case "getBalance":
		return withAddress(req, func(addr string) (any, error) { return h.engine.Account(addr) })
	case "getPlayerStats":
		return withAddress(req, func(addr string) (any, error) { return h.engine.GetPlayerStats(addr) })
	case "getWarriorsByOwner":
		return withAddress(req, func(addr string) (any, error) { return h.engine.GetWarriorsByOwner(addr) })
	case "getBattlesByPlayer":
		return withAddress(req, func(addr string) (any, error) { return h.indexer.GetBattlesByPlayer(addr) })

	case "getWarrior":
		return withID(req, func(id uint64) (any, error) { return h.engine.GetWarrior(id) })
	case "getOwnershipHistory":
		return withID(req, func(id uint64) (any, error) { return h.engine.GetOwnershipHistory(id) })
	case "getBattle":
		return withID(req, func(id uint64) (any, error) { return h.engine.GetBattle(id) })
	case "getListing":
		return withID(req, func(id uint64) (any, error) { return h.engine.GetListing(id) })

	case "getQueueLength":
		return result(req, h.engine.GetQueueLength)
	case "getBattleCount":
		return result(req, h.engine.GetBattleCount)
	case "getTotalWarriors":
		return result(req, h.engine.TotalWarriors)
	case "getActiveListings":
		return result(req, h.engine.GetActiveListings)
	case "getLeaderboard":
		return h.getLeaderboard(req)

	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func result[T any](req Request, fn func() (T, error)) Response {
	v, err := fn()
	if err != nil {
		return failResponse(req.ID, err)
	}
	return okResponse(req.ID, v)
}

func withAddress(req Request, fn func(string) (any, error)) Response {
	var params addressParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	v, err := fn(params.Address)
	if err != nil {
		return failResponse(req.ID, err)
	}
	return okResponse(req.ID, v)
}

func withID(req Request, fn func(uint64) (any, error)) Response {
	var params idParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.ID == nil {
		return errResponse(req.ID, CodeInvalidParams, "id is required")
	}
	v, err := fn(*params.ID)
	if err != nil {
		return failResponse(req.ID, err)
	}
	return okResponse(req.ID, v)
}

func (h *Handler) getBlock(req Request) Response {
	var params struct {
		Hash   string `json:"hash"`
		Height *int64 `json:"height"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
		}
	}

	var block *core.Block
	var err error
	if params.Hash != "" {
		block, err = h.bc.GetBlock(params.Hash)
	} else if params.Height != nil {
		block, err = h.bc.GetBlockByHeight(*params.Height)
	} else {
		block = h.bc.Tip()
	}
	if err != nil {
		return failResponse(req.ID, err)
	}
	if block == nil {
		return errResponse(req.ID, CodeNotFound, "no block found")
	}
	return okResponse(req.ID, block)
}

func (h *Handler) getReceipt(req Request) Response {
	var params struct {
		TxID string `json:"tx_id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.TxID == "" {
		return errResponse(req.ID, CodeInvalidParams, "tx_id is required")
	}
	r, err := h.bc.GetReceipt(params.TxID)
	if err != nil {
		return failResponse(req.ID, err)
	}
	return okResponse(req.ID, r)
}

func (h *Handler) getLeaderboard(req Request) Response {
	params := struct {
		Limit int `json:"limit"`
	}{Limit: 10}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, err.Error())
		}
	}
	if params.Limit <= 0 || params.Limit > maxLeaderboardLimit {
		return errResponse(req.ID, CodeInvalidParams, fmt.Sprintf("limit must be in 1..%d", maxLeaderboardLimit))
	}
	accounts, wins, err := h.engine.GetLeaderboard(params.Limit)
	if err != nil {
		return failResponse(req.ID, err)
	}
	return okResponse(req.ID, map[string]any{"accounts": accounts, "wins": wins})
}

func (h *Handler) sendTx(req Request) Response {
	var tx core.Transaction
	if err := json.Unmarshal(req.Params, &tx); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if tx.ChainID != h.chainID {
		return errResponse(req.ID, CodeInvalidParams,
			fmt.Sprintf("chain ID mismatch: got %q want %q", tx.ChainID, h.chainID))
	}
	// Recompute the ID server-side; do not trust the client-provided value.
	tx.ID = tx.Hash()
	if err := h.mempool.Add(&tx); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	return okResponse(req.ID, map[string]string{"tx_id": tx.ID})
}
