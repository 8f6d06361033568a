// Package ethdispatch executes authorized calls against an EVM node via
// eth_call simulation. Nothing is signed and nothing is broadcast; a call
// "succeeds" when the node executes it without revert.
package ethdispatch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
)

type Config struct {
	RPCURL string
	// From is the account the simulated calls originate at. Typically the
	// wallet's own address.
	From common.Address
}

// Dispatcher implements the wallet-side call collaborator over an EVM RPC
// endpoint.
type Dispatcher struct {
	cfg    Config
	rpc    *gethrpc.Client
	eth    *ethclient.Client
	logger zerolog.Logger
}

func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Dispatcher, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("ethdispatch: rpc url not configured")
	}
	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("ethdispatch: dial %s: %w", rpcURL, err)
	}
	return &Dispatcher{
		cfg:    cfg,
		rpc:    rpcClient,
		eth:    ethclient.NewClient(rpcClient),
		logger: logger.With().Str("component", "ethdispatch").Logger(),
	}, nil
}

// Call simulates the call at the latest block. A revert or transport error
// is a failed dispatch, never a Go error: the wallet core treats dispatch
// outcome as data.
func (d *Dispatcher) Call(ctx context.Context, target common.Address, value uint64, payload []byte) (bool, []byte) {
	msg := gethcore.CallMsg{
		From:  d.cfg.From,
		To:    &target,
		Value: new(big.Int).SetUint64(value),
		Data:  payload,
	}
	ret, err := d.eth.CallContract(ctx, msg, nil)
	if err != nil {
		d.logger.Warn().Err(err).
			Str("target", target.Hex()).
			Uint64("value", value).
			Msg("call simulation failed")
		return false, revertData(err)
	}
	return true, ret
}

func (d *Dispatcher) Close() {
	d.eth.Close()
}

// revertData extracts the ABI-encoded revert payload when the node attached
// one to the error.
func revertData(err error) []byte {
	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			return common.FromHex(hexData)
		}
	}
	return nil
}
