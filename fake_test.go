package hns

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hotdogs-ns/hns/directory"
	"github.com/hotdogs-ns/hns/schema"
)

type revertErr struct{}

func (revertErr) Error() string  { return "execution reverted" }
func (revertErr) ErrorCode() int { return 3 }

var (
	hotdogsAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	absAddr     = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	alice       = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type chain struct {
	tlds      []string
	contracts map[string]common.Address
	records   map[string]schema.DomainRecord
	owned     map[common.Address][]string
	main      map[common.Address]string
	exp       map[string]uint64 // name.tld -> expiration
	names     map[string]string // contract:tokenId -> name
	logs      map[common.Address][]directory.RawLog
	head      uint64
	down      bool
	slow      bool
}

func newChain() *chain {
	return &chain{
		tlds:      []string{"hotdogs", "abs"},
		contracts: map[string]common.Address{"hotdogs": hotdogsAddr, "abs": absAddr},
		records:   map[string]schema.DomainRecord{},
		owned:     map[common.Address][]string{},
		main:      map[common.Address]string{},
		exp:       map[string]uint64{},
		names:     map[string]string{},
		logs:      map[common.Address][]directory.RawLog{},
		head:      1000,
	}
}

var errDown = errors.New("dial tcp: connection refused")

func (ch *chain) Resolve(ctx context.Context, name, tld string) (schema.DomainRecord, error) {
	if ch.slow {
		<-ctx.Done()
		return schema.DomainRecord{}, ctx.Err()
	}
	if ch.down {
		return schema.DomainRecord{}, errDown
	}
	rec, ok := ch.records[name+"."+tld]
	if !ok {
		return schema.DomainRecord{TokenId: new(big.Int)}, nil
	}
	return rec, nil
}

func (ch *chain) ReverseLookup(ctx context.Context, owner common.Address) (string, error) {
	return ch.main[owner], nil
}

func (ch *chain) AddressToDomains(ctx context.Context, owner common.Address, index *big.Int) (string, error) {
	if ch.down {
		return "", errDown
	}
	list := ch.owned[owner]
	if index.Int64() >= int64(len(list)) {
		return "", revertErr{}
	}
	return list[index.Int64()], nil
}

func (ch *chain) MainDomain(ctx context.Context, owner common.Address) (string, error) {
	name, ok := ch.main[owner]
	if !ok {
		return "", revertErr{}
	}
	return name, nil
}

func (ch *chain) RegisteredTLDs(ctx context.Context, index *big.Int) (string, error) {
	if ch.down {
		return "", errDown
	}
	if index.Int64() >= int64(len(ch.tlds)) {
		return "", revertErr{}
	}
	return ch.tlds[index.Int64()], nil
}

func (ch *chain) TldContracts(ctx context.Context, tld string) (common.Address, error) {
	return ch.contracts[tld], nil
}

func (ch *chain) SetMainDomain(opts *bind.TransactOpts, domain string) (*types.Transaction, error) {
	return nil, errors.New("read only fake")
}

func (ch *chain) LatestBlock(ctx context.Context) (uint64, error) {
	return ch.head, nil
}

// FilterTopic bounds results by toBlock only, so logs above head stay
// visible to a wider range, like a node that imports a block between calls.
func (ch *chain) FilterTopic(ctx context.Context, contract common.Address, topic common.Hash, fromBlock, toBlock uint64) ([]directory.RawLog, error) {
	if contract == absAddr && ch.down {
		return nil, errDown
	}
	out := make([]directory.RawLog, 0)
	for _, l := range ch.logs[contract] {
		if l.Topics[0] == topic && l.BlockNumber >= fromBlock && l.BlockNumber <= toBlock {
			out = append(out, l)
		}
	}
	return out, nil
}

// nameService is the per-tld view of chain.
type nameService struct {
	ch   *chain
	addr common.Address
	tld  string
}

func (ch *chain) dial(addr common.Address) (directory.NameService, error) {
	for tld, a := range ch.contracts {
		if a == addr {
			return &nameService{ch: ch, addr: addr, tld: tld}, nil
		}
	}
	return &nameService{ch: ch, addr: addr}, nil
}

func (n *nameService) GetDomainExpiration(ctx context.Context, name string) (*big.Int, error) {
	return new(big.Int).SetUint64(n.ch.exp[name+"."+n.tld]), nil
}

func (n *nameService) TokenToDomain(ctx context.Context, tokenId *big.Int) (string, error) {
	name, ok := n.ch.names[strings.ToLower(n.addr.Hex())+":"+tokenId.String()]
	if !ok {
		return "", revertErr{}
	}
	return name, nil
}

func (n *nameService) Register(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error) {
	return nil, errors.New("read only fake")
}

func (n *nameService) Renew(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error) {
	return nil, errors.New("read only fake")
}

func (n *nameService) TransferDomain(opts *bind.TransactOpts, name string, to common.Address) (*types.Transaction, error) {
	return nil, errors.New("read only fake")
}

func (ch *chain) setName(contract common.Address, tokenId int64, name string) {
	ch.names[strings.ToLower(contract.Hex())+":"+big.NewInt(tokenId).String()] = name
}

// addRegistered appends a DomainRegistered log for tokenId at block/ts.
func (ch *chain) addRegistered(contract common.Address, tokenId int64, block, ts uint64) {
	ch.addOwnerEvent(contract, 0, tokenId, block, ts)
}

// addRenewed appends a DomainRenewed log for tokenId at block/ts.
func (ch *chain) addRenewed(contract common.Address, tokenId int64, block, ts uint64) {
	ch.addOwnerEvent(contract, 1, tokenId, block, ts)
}

// addOwnerEvent appends a (tokenId, owner) indexed event with an expiration
// in data; kind indexes directory.ActivityTopics.
func (ch *chain) addOwnerEvent(contract common.Address, kind int, tokenId int64, block, ts uint64) {
	topic := directory.ActivityTopics()[kind]
	ch.logs[contract] = append(ch.logs[contract], directory.RawLog{
		Log: types.Log{
			Address:     contract,
			Topics:      []common.Hash{topic, common.BigToHash(big.NewInt(tokenId)), common.BytesToHash(alice.Bytes())},
			Data:        common.BigToHash(big.NewInt(int64(ts) + 365*24*3600)).Bytes(),
			BlockNumber: block,
			TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(tokenId))),
			Index:       uint(kind),
		},
		Timestamp: ts,
	})
}
