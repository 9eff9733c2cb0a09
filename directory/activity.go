package directory

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hotdogs-ns/hns/schema"
	"golang.org/x/sync/errgroup"
)

// RawLog is a chain log plus the timestamp of its block.
type RawLog struct {
	types.Log
	Timestamp uint64
}

// LogSource fetches the logs of one contract carrying topic as topic[0] in
// blocks fromBlock..toBlock inclusive (fromBlock 0 means the earliest block).
type LogSource interface {
	LatestBlock(ctx context.Context) (uint64, error)
	FilterTopic(ctx context.Context, contract common.Address, topic common.Hash, fromBlock, toBlock uint64) ([]RawLog, error)
}

var activityTypes = map[string]string{
	"DomainRegistered":  schema.ActivityRegister,
	"DomainRenewed":     schema.ActivityRenew,
	"DomainTransferred": schema.ActivityTransfer,
	"DomainExpired":     schema.ActivityExpire,
}

// ActivityTopics are the topic[0] hashes of the four domain lifecycle events.
func ActivityTopics() []common.Hash {
	topics := make([]common.Hash, 0, len(activityTypes))
	for _, name := range []string{"DomainRegistered", "DomainRenewed", "DomainTransferred", "DomainExpired"} {
		topics = append(topics, nameServiceAbi.Events[name].ID)
	}
	return topics
}

type decodedLog struct {
	event   schema.ActivityEvent
	tokenId *big.Int
}

// decodeLog turns one raw log into an event without its domain name.
func decodeLog(raw RawLog, tld string) (decodedLog, error) {
	if len(raw.Topics) == 0 {
		return decodedLog{}, errors.New("log without topics")
	}
	ev, err := nameServiceAbi.EventByID(raw.Topics[0])
	if err != nil {
		return decodedLog{}, err
	}
	typ, ok := activityTypes[ev.Name]
	if !ok {
		return decodedLog{}, fmt.Errorf("unexpected event %s", ev.Name)
	}

	args := make(map[string]interface{})
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, raw.Topics[1:]); err != nil {
		return decodedLog{}, err
	}
	if err := ev.Inputs.UnpackIntoMap(args, raw.Data); err != nil {
		return decodedLog{}, err
	}

	tokenId, ok := args["tokenId"].(*big.Int)
	if !ok {
		return decodedLog{}, errors.New("missing tokenId")
	}
	out := schema.ActivityEvent{
		ID:          raw.TxHash.Hex() + "-" + strconv.FormatUint(uint64(raw.Index), 10),
		Type:        typ,
		TxHash:      raw.TxHash.Hex(),
		BlockNumber: raw.BlockNumber,
		TokenId:     tokenId.String(),
		Timestamp:   raw.Timestamp,
		Tld:         tld,
	}
	for _, key := range []string{"from", "previousOwner", "owner"} {
		if addr, ok := args[key].(common.Address); ok {
			out.From = addr.Hex()
			break
		}
	}
	if addr, ok := args["to"].(common.Address); ok {
		out.To = addr.Hex()
	}
	for _, key := range []string{"expiration", "newExpiration"} {
		if exp, ok := args[key].(*big.Int); ok {
			out.Expiration = exp.String()
			break
		}
	}
	return decodedLog{event: out, tokenId: tokenId}, nil
}

// Activity returns every lifecycle event of the name-service contract, newest first.
func (c *Client) Activity(ctx context.Context, contract common.Address, tld string) ([]schema.ActivityEvent, error) {
	events, _, err := c.ActivitySince(ctx, contract, tld, 0)
	return events, err
}

// ActivitySince is Activity limited to blocks fromBlock..head, where head is
// read once up front and returned so a caller can resume at head+1. Every
// topic query uses the same head. When fromBlock is past head no logs are
// fetched. Logs that cannot be decoded are logged and dropped.
func (c *Client) ActivitySince(ctx context.Context, contract common.Address, tld string, fromBlock uint64) ([]schema.ActivityEvent, uint64, error) {
	if c.logs == nil {
		return nil, 0, fmt.Errorf("%w: no log source", schema.ErrRpcNotConfigured)
	}
	ns, err := c.nameServiceAt(contract, tld)
	if err != nil {
		return nil, 0, err
	}
	var head uint64
	err = c.call(ctx, "eth_blockNumber", func(ctx context.Context) (err error) {
		head, err = c.logs.LatestBlock(ctx)
		return
	})
	if err != nil {
		return nil, 0, err
	}
	events := make([]schema.ActivityEvent, 0)
	if fromBlock > head {
		return events, head, nil
	}

	topics := ActivityTopics()
	batches := make([][]RawLog, len(topics))
	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		i, topic := i, topic
		g.Go(func() error {
			return c.call(gctx, "eth_getLogs", func(ctx context.Context) (err error) {
				batches[i], err = c.logs.FilterTopic(ctx, contract, topic, fromBlock, head)
				return
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	for _, batch := range batches {
		for _, raw := range batch {
			if raw.BlockNumber > head {
				continue
			}
			d, err := decodeLog(raw, tld)
			if err != nil {
				skippedLogs.Inc()
				log.Warn("skip undecodable log", "tld", tld, "tx", raw.TxHash.Hex(), "err", err)
				continue
			}
			name, err := c.tokenName(ctx, contract, ns, d.tokenId)
			if err != nil {
				skippedLogs.Inc()
				log.Warn("skip log, token name lookup failed", "tld", tld, "tokenId", d.event.TokenId, "err", err)
				continue
			}
			d.event.Domain = name
			events = append(events, d.event)
		}
	}
	sortEventsDesc(events)
	return events, head, nil
}

func (c *Client) nameServiceAt(contract common.Address, tld string) (NameService, error) {
	if h, err := c.handle(tld); err == nil && h.entry.Contract == contract {
		return h.ns, nil
	}
	return c.dial(contract)
}

// tokenName resolves tokenId through tokenToDomain. A no-data answer is an
// empty name rather than a failure; token 0 never has a name.
func (c *Client) tokenName(ctx context.Context, contract common.Address, ns NameService, tokenId *big.Int) (string, error) {
	if tokenId.Sign() == 0 {
		return "", nil
	}
	key := contract.Hex() + ":" + tokenId.String()
	if c.names != nil {
		if name, ok := c.names.GetString(key); ok {
			return name, nil
		}
	}
	var name string
	err := c.call(ctx, "tokenToDomain", func(ctx context.Context) (err error) {
		name, err = ns.TokenToDomain(ctx, tokenId)
		return
	})
	if err != nil {
		if isNoData(err) {
			return "", nil
		}
		return "", err
	}
	if c.names != nil && name != "" {
		if err := c.names.SetString(key, name); err != nil {
			log.Debug("cache token name failed", "key", key, "err", err)
		}
	}
	return name, nil
}
