package schema

const (
	DefaultYears         = 1
	MaxYears             = 10
	ExpiringSoonSeconds  = 30 * 24 * 60 * 60 // 30 days
	DefaultHistoryLimit  = 50
	MaxHistoryLimit      = 500
	DefaultCallTimeoutMs = 15000
)

type ReqResolve struct {
	Name string `json:"name"`
	Tld  string `json:"tld"`
}

type RespResolve struct {
	Owner      string `json:"owner"`
	Expiration string `json:"expiration"`
	NftAddress string `json:"nftAddress"`
	TokenId    string `json:"tokenId"`
}

type ReqReverseLookup struct {
	Address string `json:"address"`
}

type RespReverseLookup struct {
	Address    string   `json:"address"`
	Names      []string `json:"names"`
	MainDomain string   `json:"mainDomain"`
}

type RespTlds struct {
	Tlds []string `json:"tlds"`
}

type ReqActivityLogs struct {
	Address string `json:"address"` // name-service contract address
	Tld     string `json:"tld"`
}

type RespActivityLogs struct {
	Events []ActivityEvent `json:"events"`
}

type RespPrice struct {
	Name  string `json:"name"`
	Years int    `json:"years"`
	Wei   string `json:"wei"`
	Ether string `json:"ether"`
}

type ReqDomainStatus struct {
	Domain string `json:"domain"` // "name.tld" or bare "name"
	Years  int    `json:"years"`
}

type RespDomainStatus struct {
	Name       string `json:"name"`
	Tld        string `json:"tld"`
	Available  bool   `json:"available"`
	Owner      string `json:"owner"`
	Expiration string `json:"expiration"`
	Price      string `json:"price"`    // ether
	PriceWei   string `json:"priceWei"` // wei
}

type RespExpiration struct {
	Name       string `json:"name"`
	Tld        string `json:"tld"`
	Expiration string `json:"expiration"`
}

type PortfolioDomain struct {
	Domain       string `json:"domain"`
	Expiration   string `json:"expiration"`
	ExpiringSoon bool   `json:"expiringSoon"`
	IsMain       bool   `json:"isMain"`
}

type RespPortfolio struct {
	Address      string            `json:"address"`
	MainDomain   string            `json:"mainDomain"`
	Domains      []PortfolioDomain `json:"domains"`
	Total        int               `json:"total"`
	ExpiringSoon int               `json:"expiringSoon"`
}

type RespInfo struct {
	Manager        string     `json:"manager"`
	ChainId        string     `json:"chainId"`
	Tlds           []TldEntry `json:"tlds"`
	TldsRefreshed  int64      `json:"tldsRefreshed"` // unix seconds, 0 if never
	ArchiveEnabled bool       `json:"archiveEnabled"`
}

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}
