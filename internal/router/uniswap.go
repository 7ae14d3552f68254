// Package router implements the domain.Router capability against a Uniswap
// V2-compatible on-chain router via JSON-RPC eth_call.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"dexquote/internal/domain"
)

// getAmountsOutABI is the fragment of the Uniswap V2 router interface this
// client calls.
const getAmountsOutABI = `[{
	"name": "getAmountsOut",
	"type": "function",
	"stateMutability": "view",
	"inputs": [
		{"name": "amountIn", "type": "uint256"},
		{"name": "path", "type": "address[]"}
	],
	"outputs": [
		{"name": "amounts", "type": "uint256[]"}
	]
}]`

// callTimeout bounds each eth_call; the caller's ctx may be tighter.
const callTimeout = 10 * time.Second

// Client calls getAmountsOut on a V2-style router contract.
type Client struct {
	eth      *ethclient.Client
	contract common.Address
	abi      abi.ABI
	logger   *slog.Logger
}

// Dial connects to the given JSON-RPC endpoint and targets the router at
// routerAddress.
func Dial(ctx context.Context, rpcURL, routerAddress string, logger *slog.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(getAmountsOutABI))
	if err != nil {
		return nil, fmt.Errorf("router: parse abi: %w", err)
	}
	if !common.IsHexAddress(routerAddress) {
		return nil, fmt.Errorf("router: invalid router address %q", routerAddress)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("router: dial %s: %w", rpcURL, err)
	}

	return &Client{
		eth:      eth,
		contract: common.HexToAddress(routerAddress),
		abi:      parsed,
		logger:   logger.With(slog.String("component", "router")),
	}, nil
}

// AmountsOut returns the router's amounts-out along path for amountIn. Every
// element of path must be a hex contract address (native legs are already
// mapped to the wrapped-native address by the caller).
func (c *Client) AmountsOut(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("router: path needs at least 2 hops: %w", domain.ErrNoRoute)
	}

	addrs := make([]common.Address, len(path))
	for i, p := range path {
		if !common.IsHexAddress(p) {
			return nil, fmt.Errorf("router: invalid address %q in path", p)
		}
		addrs[i] = common.HexToAddress(p)
	}

	input, err := c.abi.Pack("getAmountsOut", amountIn, addrs)
	if err != nil {
		return nil, fmt.Errorf("router: pack call: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	output, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: input,
	}, nil)
	if err != nil {
		// Reverts here usually mean the pair has no pool.
		return nil, fmt.Errorf("router: eth_call: %w", err)
	}

	results, err := c.abi.Unpack("getAmountsOut", output)
	if err != nil {
		return nil, fmt.Errorf("router: unpack result: %w", err)
	}
	amounts, ok := results[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, fmt.Errorf("router: unexpected result shape: %w", domain.ErrNoRoute)
	}

	return amounts, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

var _ domain.Router = (*Client)(nil)
