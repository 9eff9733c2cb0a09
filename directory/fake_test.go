package directory

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hotdogs-ns/hns/schema"
)

// revertErr mimics the json-rpc error a node returns for a reverted eth_call.
type revertErr struct{}

func (revertErr) Error() string  { return "execution reverted" }
func (revertErr) ErrorCode() int { return 3 }

var errTransport = errors.New("connection refused")

type fakeManager struct {
	sync.Mutex
	tlds       []string
	contracts  map[string]common.Address
	records    map[string]schema.DomainRecord // key: name.tld
	owned      map[common.Address][]string
	reverse    map[common.Address]string
	failTldsAt int // >0: transport error at that index
	block      bool

	probes       []int64
	resolveCalls []string
	mainDomain   string
}

func (m *fakeManager) Resolve(ctx context.Context, name, tld string) (schema.DomainRecord, error) {
	m.Lock()
	m.resolveCalls = append(m.resolveCalls, name+"."+tld)
	m.Unlock()
	if m.block {
		<-ctx.Done()
		return schema.DomainRecord{}, ctx.Err()
	}
	rec, ok := m.records[name+"."+tld]
	if !ok {
		return schema.DomainRecord{TokenId: new(big.Int)}, nil
	}
	return rec, nil
}

func (m *fakeManager) ReverseLookup(ctx context.Context, owner common.Address) (string, error) {
	name, ok := m.reverse[owner]
	if !ok {
		return "", revertErr{}
	}
	return name, nil
}

func (m *fakeManager) AddressToDomains(ctx context.Context, owner common.Address, index *big.Int) (string, error) {
	list := m.owned[owner]
	if index.Int64() >= int64(len(list)) {
		return "", revertErr{}
	}
	return list[index.Int64()], nil
}

func (m *fakeManager) MainDomain(ctx context.Context, owner common.Address) (string, error) {
	return m.reverse[owner], nil
}

func (m *fakeManager) RegisteredTLDs(ctx context.Context, index *big.Int) (string, error) {
	m.Lock()
	m.probes = append(m.probes, index.Int64())
	m.Unlock()
	i := int(index.Int64())
	if m.failTldsAt > 0 && i == m.failTldsAt {
		return "", errTransport
	}
	if i >= len(m.tlds) {
		return "", revertErr{}
	}
	return m.tlds[i], nil
}

func (m *fakeManager) TldContracts(ctx context.Context, tld string) (common.Address, error) {
	return m.contracts[tld], nil
}

func (m *fakeManager) SetMainDomain(opts *bind.TransactOpts, domain string) (*types.Transaction, error) {
	m.Lock()
	m.mainDomain = domain
	m.Unlock()
	return newTx(opts), nil
}

type fakeNameService struct {
	sync.Mutex
	expirations map[string]*big.Int
	names       map[string]string // tokenId -> name
	revertWrite bool

	writes    []string
	values    []*big.Int
	nameReads int
}

func (n *fakeNameService) GetDomainExpiration(ctx context.Context, name string) (*big.Int, error) {
	exp, ok := n.expirations[name]
	if !ok {
		return big.NewInt(0), nil
	}
	return exp, nil
}

func (n *fakeNameService) TokenToDomain(ctx context.Context, tokenId *big.Int) (string, error) {
	n.Lock()
	n.nameReads++
	n.Unlock()
	name, ok := n.names[tokenId.String()]
	if !ok {
		return "", revertErr{}
	}
	return name, nil
}

func (n *fakeNameService) write(opts *bind.TransactOpts, call string) (*types.Transaction, error) {
	if n.revertWrite {
		return nil, revertErr{}
	}
	n.Lock()
	n.writes = append(n.writes, call)
	n.values = append(n.values, opts.Value)
	n.Unlock()
	return newTx(opts), nil
}

func (n *fakeNameService) Register(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error) {
	return n.write(opts, "register:"+name+":"+years.String())
}

func (n *fakeNameService) Renew(opts *bind.TransactOpts, name string, years *big.Int) (*types.Transaction, error) {
	return n.write(opts, "renew:"+name+":"+years.String())
}

func (n *fakeNameService) TransferDomain(opts *bind.TransactOpts, name string, to common.Address) (*types.Transaction, error) {
	return n.write(opts, "transfer:"+name+":"+strings.ToLower(to.Hex()))
}

func newTx(opts *bind.TransactOpts) *types.Transaction {
	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.LegacyTx{Nonce: 1, Value: value, Gas: 21000, GasPrice: big.NewInt(1)})
}

type fakeNet struct {
	manager  *fakeManager
	services map[common.Address]*fakeNameService
	dials    int
}

func newFakeNet() *fakeNet {
	hotdogs := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	abs := common.HexToAddress("0x00000000000000000000000000000000000000a2")
	return &fakeNet{
		manager: &fakeManager{
			tlds:      []string{"hotdogs", "abs"},
			contracts: map[string]common.Address{"hotdogs": hotdogs, "abs": abs},
			records:   map[string]schema.DomainRecord{},
			owned:     map[common.Address][]string{},
			reverse:   map[common.Address]string{},
		},
		services: map[common.Address]*fakeNameService{
			hotdogs: {expirations: map[string]*big.Int{}, names: map[string]string{}},
			abs:     {expirations: map[string]*big.Int{}, names: map[string]string{}},
		},
	}
}

func (f *fakeNet) dial(addr common.Address) (NameService, error) {
	f.dials++
	ns, ok := f.services[addr]
	if !ok {
		return nil, errors.New("no contract at address")
	}
	return ns, nil
}

func (f *fakeNet) client(opts ...Option) *Client {
	return NewClient(f.manager, f.dial, opts...)
}
