package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tidwall/gjson"
)

type headerReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// rpcLogSource issues raw eth_getLogs so the non-standard blockTimestamp
// field some nodes attach to each log is not lost.
type rpcLogSource struct {
	rpc     *rpc.Client
	headers headerReader
}

func NewRpcLogSource(rpcCli *rpc.Client, ethCli *ethclient.Client) LogSource {
	return &rpcLogSource{rpc: rpcCli, headers: ethCli}
}

func (s *rpcLogSource) LatestBlock(ctx context.Context) (uint64, error) {
	h, err := s.headers.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return h.Number.Uint64(), nil
}

func (s *rpcLogSource) FilterTopic(ctx context.Context, contract common.Address, topic common.Hash, fromBlock, toBlock uint64) ([]RawLog, error) {
	from := "earliest"
	if fromBlock > 0 {
		from = hexutil.EncodeUint64(fromBlock)
	}
	filter := map[string]interface{}{
		"fromBlock": from,
		"toBlock":   hexutil.EncodeUint64(toBlock),
		"address":   contract,
		"topics":    []common.Hash{topic},
	}
	var result json.RawMessage
	if err := s.rpc.CallContext(ctx, &result, "eth_getLogs", filter); err != nil {
		return nil, err
	}
	return parseLogs(ctx, result, s.headers)
}

// parseLogs reads an eth_getLogs result. Entries missing required fields are
// dropped here, as are logs a reorg removed; block times come from
// blockTimestamp or the block header.
func parseLogs(ctx context.Context, result []byte, headers headerReader) ([]RawLog, error) {
	if !gjson.ValidBytes(result) {
		return nil, fmt.Errorf("eth_getLogs: invalid json result")
	}
	times := make(map[uint64]uint64)
	out := make([]RawLog, 0)
	for _, item := range gjson.ParseBytes(result).Array() {
		raw, err := parseLog(item)
		if err != nil {
			skippedLogs.Inc()
			log.Warn("skip malformed log", "err", err)
			continue
		}
		if raw.Removed {
			log.Debug("skip removed log", "tx", raw.TxHash.Hex(), "block", raw.BlockNumber)
			continue
		}
		if ts := item.Get("blockTimestamp"); ts.Exists() {
			if raw.Timestamp, err = hexutil.DecodeUint64(ts.String()); err != nil {
				skippedLogs.Inc()
				log.Warn("skip log with bad blockTimestamp", "tx", raw.TxHash.Hex(), "err", err)
				continue
			}
		} else if headers != nil {
			t, ok := times[raw.BlockNumber]
			if !ok {
				h, err := headers.HeaderByNumber(ctx, new(big.Int).SetUint64(raw.BlockNumber))
				if err != nil {
					return nil, err
				}
				t = h.Time
				times[raw.BlockNumber] = t
			}
			raw.Timestamp = t
		}
		out = append(out, raw)
	}
	return out, nil
}

func parseLog(item gjson.Result) (RawLog, error) {
	var raw RawLog
	for _, field := range []string{"address", "blockNumber", "transactionHash", "logIndex"} {
		if !item.Get(field).Exists() {
			return raw, fmt.Errorf("missing %s", field)
		}
	}
	var err error
	raw.Address = common.HexToAddress(item.Get("address").String())
	if raw.BlockNumber, err = hexutil.DecodeUint64(item.Get("blockNumber").String()); err != nil {
		return raw, fmt.Errorf("blockNumber: %w", err)
	}
	idx, err := hexutil.DecodeUint64(item.Get("logIndex").String())
	if err != nil {
		return raw, fmt.Errorf("logIndex: %w", err)
	}
	raw.Index = uint(idx)
	raw.TxHash = common.HexToHash(item.Get("transactionHash").String())
	raw.BlockHash = common.HexToHash(item.Get("blockHash").String())
	if data := item.Get("data").String(); data != "" && data != "0x" {
		if raw.Data, err = hexutil.Decode(data); err != nil {
			return raw, fmt.Errorf("data: %w", err)
		}
	}
	for _, t := range item.Get("topics").Array() {
		raw.Topics = append(raw.Topics, common.HexToHash(t.String()))
	}
	raw.Removed = item.Get("removed").Bool()
	return raw, nil
}
