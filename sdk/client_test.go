package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/hotdogs-ns/hns"
	"github.com/hotdogs-ns/hns/config"
	"github.com/hotdogs-ns/hns/directory"
	"github.com/hotdogs-ns/hns/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, code int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/list-tlds", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, schema.RespTlds{Tlds: []string{"hotdogs", "abs"}})
	})
	mux.HandleFunc("/resolve-domain", func(w http.ResponseWriter, r *http.Request) {
		req := schema.ReqResolve{}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name == "" || req.Tld == "" {
			write(w, http.StatusBadRequest, schema.RespErr{Err: "Missing name or tld"})
			return
		}
		write(w, http.StatusOK, schema.RespResolve{Owner: "0x1", Expiration: "10", TokenId: "7"})
	})
	mux.HandleFunc("/price/alice/2", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, schema.RespPrice{Name: "alice", Years: 2, Wei: "16000000000000000", Ether: "0.016"})
	})
	mux.HandleFunc("/activity", func(w http.ResponseWriter, r *http.Request) {
		events := []schema.ActivityEvent{{ID: "a", Tld: "hotdogs"}, {ID: "b", Tld: "abs"}}
		if tld := r.URL.Query().Get("tld"); tld != "" {
			events = events[:1]
		}
		write(w, http.StatusOK, schema.RespActivityLogs{Events: events})
	})
	mux.HandleFunc("/activity/history/hotdogs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		write(w, http.StatusOK, schema.RespActivityLogs{Events: []schema.ActivityEvent{{ID: "c"}}})
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, schema.RespInfo{Manager: "0xabc", ChainId: "11124"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHnsCli(t *testing.T) {
	cli := New(newServer(t).URL)

	assert.Equal(t, []string{"hotdogs", "abs"}, cli.ListTlds())

	rec, err := cli.ResolveDomain("alice", "hotdogs")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.TokenId)

	_, err = cli.ResolveDomain("alice", "")
	require.Error(t, err)
	assert.True(t, errors.As(err, &schema.RespErr{}))
	assert.Contains(t, err.Error(), "Missing name or tld")

	price, err := cli.GetPrice("alice", 2)
	require.NoError(t, err)
	assert.Equal(t, "0.016", price.Ether)

	events, err := cli.GetActivity("")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	events, err = cli.GetActivity("hotdogs")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = cli.GetActivityHistory("hotdogs", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "c", events[0].ID)

	info, err := cli.GetInfo()
	require.NoError(t, err)
	assert.Equal(t, "11124", info.ChainId)

	_, err = cli.GetPortfolio("0x1")
	assert.Error(t, err)
}

func TestHnsCli_ListTldsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	assert.Equal(t, []string{}, New(srv.URL).ListTlds())
	assert.Equal(t, []string{}, New("http://127.0.0.1:1").ListTlds())
}

type tldManager struct {
	tlds []string
	fail bool
}

func (m *tldManager) Resolve(ctx context.Context, name, tld string) (schema.DomainRecord, error) {
	return schema.DomainRecord{}, nil
}
func (m *tldManager) ReverseLookup(ctx context.Context, owner common.Address) (string, error) {
	return "", nil
}
func (m *tldManager) AddressToDomains(ctx context.Context, owner common.Address, index *big.Int) (string, error) {
	return "", nil
}
func (m *tldManager) MainDomain(ctx context.Context, owner common.Address) (string, error) {
	return "", nil
}
func (m *tldManager) RegisteredTLDs(ctx context.Context, index *big.Int) (string, error) {
	if m.fail {
		return "", errors.New("connection refused")
	}
	if index.Int64() >= int64(len(m.tlds)) {
		return "", nil
	}
	return m.tlds[index.Int64()], nil
}
func (m *tldManager) TldContracts(ctx context.Context, tld string) (common.Address, error) {
	return common.BytesToAddress([]byte(tld)), nil
}
func (m *tldManager) SetMainDomain(opts *bind.TransactOpts, domain string) (*types.Transaction, error) {
	return nil, errors.New("unsupported")
}

func newDirectory(m *tldManager) *directory.Client {
	return directory.NewClient(m, func(addr common.Address) (directory.NameService, error) {
		return nil, nil
	})
}

// newHnsServer runs the real service routes over its own directory client.
func newHnsServer(t *testing.T, m *tldManager) *httptest.Server {
	cfg := config.Default()
	cfg.RateLimit = 0
	cfg.BoltDir = t.TempDir()
	s, err := hns.New(cfg, newDirectory(m))
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return srv
}

func TestSDK_ListTldsBothPaths(t *testing.T) {
	m := &tldManager{tlds: []string{"hotdogs", "abs", "dog"}}
	srv := newHnsServer(t, m)

	direct := NewSDK(srv.URL, newDirectory(m))
	proxied := NewSDK(srv.URL, nil)
	want := []string{"hotdogs", "abs", "dog"}
	assert.Equal(t, want, direct.ListTlds(context.Background()))
	assert.Equal(t, want, proxied.ListTlds(context.Background()))

	// both follow the chain, not a snapshot
	m.tlds = []string{"abs"}
	assert.Equal(t, []string{"abs"}, direct.ListTlds(context.Background()))
	assert.Equal(t, []string{"abs"}, proxied.ListTlds(context.Background()))

	// and both go soft on the same failure
	m.fail = true
	assert.Equal(t, []string{}, direct.ListTlds(context.Background()))
	assert.Equal(t, []string{}, proxied.ListTlds(context.Background()))

	wei, ether := proxied.Quote("alice", 2)
	assert.Equal(t, "16000000000000000", wei.String())
	assert.Equal(t, "0.016", ether)
}
