package hns

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	hnsCommon "github.com/hotdogs-ns/hns/common"
	"github.com/hotdogs-ns/hns/directory"
	"github.com/hotdogs-ns/hns/schema"
)

func (s *Hns) routes() {
	r := s.engine
	r.Use(RequestIdMiddleware(), MetricMiddleware(), hnsCommon.CORSMiddleware())
	if s.config.RateLimit > 0 {
		r.Use(hnsCommon.LimiterMiddleware(s.config.RateLimit, strings.ToUpper(s.config.RatePeriod), s.config.IpWhiteList))
	}
	v1 := r.Group("/")
	{
		v1.POST("/resolve-domain", s.resolveDomain)
		v1.POST("/reverse-lookup", s.reverseLookup)
		v1.OPTIONS("/reverse-lookup", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		v1.GET("/list-tlds", s.listTlds)
		v1.POST("/get-activity-logs", s.getActivityLogs)

		v1.GET("/price/:name/:years", s.getPrice)
		v1.POST("/domain-status", s.domainStatus)
		v1.GET("/expiration/:tld/:name", s.getExpiration)
		v1.GET("/portfolio/:address", s.getPortfolio)
		v1.GET("/activity", s.getActivity)
		v1.GET("/activity/history/:tld", s.getActivityHistory)
		v1.GET("/info", s.getInfo)
	}
	// paths used by the web front end
	legacy := r.Group("/api")
	{
		legacy.POST("/hns/resolve", s.resolveDomain)
		legacy.POST("/hns/reverseLookup", s.reverseLookup)
		legacy.GET("/hns/tlds", s.listTlds)
		legacy.POST("/ns/getLogs", s.getActivityLogs)
	}
}

func (s *Hns) resolveDomain(c *gin.Context) {
	req := schema.ReqResolve{}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Tld == "" {
		errorResponse(c, "Missing name or tld")
		return
	}
	rec, err := s.dir.Resolve(c.Request.Context(), req.Name, req.Tld)
	if err != nil {
		log.Error("s.dir.Resolve", "err", err, "name", req.Name, "tld", req.Tld)
		chainErrorResponse(c, err, "Failed to resolve domain")
		return
	}
	c.JSON(http.StatusOK, schema.RespResolve{
		Owner:      rec.Owner.Hex(),
		Expiration: strconv.FormatUint(rec.Expiration, 10),
		NftAddress: rec.NftAddress.Hex(),
		TokenId:    rec.TokenId.String(),
	})
}

func (s *Hns) reverseLookup(c *gin.Context) {
	req := schema.ReqReverseLookup{}
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" {
		errorResponse(c, "Missing address")
		return
	}
	if !common.IsHexAddress(req.Address) {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr := common.HexToAddress(req.Address)
	ctx := c.Request.Context()
	names, err := s.dir.ListOwnedDomains(ctx, addr)
	if err != nil {
		log.Error("s.dir.ListOwnedDomains", "err", err, "address", req.Address)
		chainErrorResponse(c, err, "Failed to fetch names")
		return
	}
	main, err := s.dir.MainDomain(ctx, addr)
	if err != nil {
		log.Error("s.dir.MainDomain", "err", err, "address", req.Address)
		chainErrorResponse(c, err, "Failed to fetch names")
		return
	}
	c.JSON(http.StatusOK, schema.RespReverseLookup{
		Address:    req.Address,
		Names:      names,
		MainDomain: main,
	})
}

func (s *Hns) listTlds(c *gin.Context) {
	entries := s.dir.ListTlds(c.Request.Context())
	tlds := make([]string, 0, len(entries))
	for _, e := range entries {
		tlds = append(tlds, e.Tld)
	}
	c.JSON(http.StatusOK, schema.RespTlds{Tlds: tlds})
}

func (s *Hns) getActivityLogs(c *gin.Context) {
	req := schema.ReqActivityLogs{}
	if err := c.ShouldBindJSON(&req); err != nil || req.Address == "" || req.Tld == "" {
		errorResponse(c, "Missing address or tld")
		return
	}
	if !common.IsHexAddress(req.Address) {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	events, err := s.dir.Activity(c.Request.Context(), common.HexToAddress(req.Address), req.Tld)
	if err != nil {
		log.Error("s.dir.Activity", "err", err, "contract", req.Address, "tld", req.Tld)
		chainErrorResponse(c, err, "Failed to get logs: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, schema.RespActivityLogs{Events: events})
}

func parseYears(raw string) (int, error) {
	if raw == "" {
		return schema.DefaultYears, nil
	}
	years, err := strconv.Atoi(raw)
	if err != nil || years < 1 || years > schema.MaxYears {
		return 0, schema.ErrInvalidYears
	}
	return years, nil
}

func (s *Hns) getPrice(c *gin.Context) {
	name := strings.ToLower(c.Param("name"))
	years, err := parseYears(c.Param("years"))
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	wei := directory.DomainPrice(name, years)
	c.JSON(http.StatusOK, schema.RespPrice{
		Name:  name,
		Years: years,
		Wei:   wei.String(),
		Ether: directory.FormatEther(wei),
	})
}

// tlds returns the cached enumeration, enumerating once if the cache is cold.
func (s *Hns) tlds(c *gin.Context) []schema.TldEntry {
	tlds, _ := s.dir.CachedTlds()
	if len(tlds) == 0 {
		tlds = s.dir.ListTlds(c.Request.Context())
	}
	return tlds
}

func (s *Hns) domainStatus(c *gin.Context) {
	req := schema.ReqDomainStatus{}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Domain) == "" {
		errorResponse(c, "Missing domain")
		return
	}
	if req.Years == 0 {
		req.Years = schema.DefaultYears
	}
	if req.Years < 1 || req.Years > schema.MaxYears {
		errorResponse(c, schema.ErrInvalidYears.Error())
		return
	}
	tlds := s.tlds(c)
	name, tld := directory.ParseDomain(req.Domain, directory.DefaultTld(tlds))
	if err := directory.ValidateName(name, tld, tlds); err != nil {
		errorResponse(c, err.Error())
		return
	}
	rec, err := s.dir.Resolve(c.Request.Context(), name, tld)
	if err != nil {
		log.Error("s.dir.Resolve", "err", err, "name", name, "tld", tld)
		chainErrorResponse(c, err, "Failed to resolve domain")
		return
	}
	wei := directory.DomainPrice(name, req.Years)
	c.JSON(http.StatusOK, schema.RespDomainStatus{
		Name:       name,
		Tld:        tld,
		Available:  s.dir.IsAvailable(rec),
		Owner:      rec.Owner.Hex(),
		Expiration: strconv.FormatUint(rec.Expiration, 10),
		Price:      directory.FormatEther(wei),
		PriceWei:   wei.String(),
	})
}

func (s *Hns) getExpiration(c *gin.Context) {
	name, tld := strings.ToLower(c.Param("name")), strings.ToLower(c.Param("tld"))
	if _, ok := s.dir.TldContract(tld); !ok {
		s.tlds(c)
	}
	exp, err := s.dir.GetDomainExpiration(c.Request.Context(), name, tld)
	if err != nil {
		if errors.Is(err, schema.ErrContractNotInitialized) {
			errorResponse(c, err.Error())
			return
		}
		log.Error("s.dir.GetDomainExpiration", "err", err, "name", name, "tld", tld)
		chainErrorResponse(c, err, "Failed to get expiration")
		return
	}
	c.JSON(http.StatusOK, schema.RespExpiration{
		Name:       name,
		Tld:        tld,
		Expiration: strconv.FormatUint(exp, 10),
	})
}

func (s *Hns) getPortfolio(c *gin.Context) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr := common.HexToAddress(raw)
	ctx := c.Request.Context()
	names, err := s.dir.ListOwnedDomains(ctx, addr)
	if err != nil {
		log.Error("s.dir.ListOwnedDomains", "err", err, "address", raw)
		chainErrorResponse(c, err, "Failed to fetch names")
		return
	}
	main, err := s.dir.MainDomain(ctx, addr)
	if err != nil {
		log.Error("s.dir.MainDomain", "err", err, "address", raw)
		chainErrorResponse(c, err, "Failed to fetch names")
		return
	}
	if len(names) > 0 {
		s.tlds(c)
	}

	now := time.Now()
	resp := schema.RespPortfolio{Address: addr.Hex(), MainDomain: main, Domains: make([]schema.PortfolioDomain, 0, len(names))}
	for _, domain := range names {
		pd := schema.PortfolioDomain{Domain: domain, IsMain: strings.EqualFold(domain, main)}
		if name, tld, ok := strings.Cut(domain, "."); ok {
			exp, err := s.dir.GetDomainExpiration(ctx, name, tld)
			if err != nil {
				log.Warn("portfolio expiration", "err", err, "domain", domain)
			} else {
				pd.Expiration = strconv.FormatUint(exp, 10)
				pd.ExpiringSoon = directory.ExpiringSoon(exp, now, schema.ExpiringSoonSeconds*time.Second)
			}
		}
		if pd.ExpiringSoon {
			resp.ExpiringSoon++
		}
		resp.Domains = append(resp.Domains, pd)
	}
	resp.Total = len(resp.Domains)
	c.JSON(http.StatusOK, resp)
}

func (s *Hns) getActivity(c *gin.Context) {
	tlds := s.tlds(c)
	if only := c.Query("tld"); only != "" {
		filtered := make([]schema.TldEntry, 0, 1)
		for _, t := range tlds {
			if strings.EqualFold(t.Tld, only) {
				filtered = append(filtered, t)
			}
		}
		tlds = filtered
	}
	events := s.collectActivity(c.Request.Context(), tlds)
	c.JSON(http.StatusOK, schema.RespActivityLogs{Events: events})
}

func (s *Hns) getActivityHistory(c *gin.Context) {
	if s.wdb == nil {
		errorResponse(c, schema.ErrArchiveDisabled.Error())
		return
	}
	tld := strings.ToLower(c.Param("tld"))
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		errorResponse(c, "invalid page")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(schema.DefaultHistoryLimit)))
	if err != nil || limit < 1 {
		errorResponse(c, "invalid limit")
		return
	}
	if limit > schema.MaxHistoryLimit {
		limit = schema.MaxHistoryLimit
	}
	rows, err := s.wdb.GetEvents(tld, page, limit)
	if err != nil {
		log.Error("s.wdb.GetEvents", "err", err, "tld", tld)
		internalErrorResponse(c, err.Error())
		return
	}
	events := make([]schema.ActivityEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.Event())
	}
	c.JSON(http.StatusOK, schema.RespActivityLogs{Events: events})
}

func (s *Hns) getInfo(c *gin.Context) {
	tlds, at := s.dir.CachedTlds()
	if at.IsZero() {
		// nothing enumerated in this process yet, report the persisted snapshot
		tlds, at = s.cache.GetTlds()
	}
	var refreshed int64
	if !at.IsZero() {
		refreshed = at.Unix()
	}
	c.JSON(http.StatusOK, schema.RespInfo{
		Manager:        s.dir.ManagerAddress().Hex(),
		ChainId:        s.chainId(c),
		Tlds:           tlds,
		TldsRefreshed:  refreshed,
		ArchiveEnabled: s.wdb != nil,
	})
}

func (s *Hns) chainId(c *gin.Context) string {
	if id := s.cache.GetChainId(); id != "" {
		return id
	}
	id, err := s.dir.ChainID(c.Request.Context())
	if err != nil {
		log.Debug("chain id unavailable", "err", err)
		return ""
	}
	s.cache.UpdateChainId(id.String())
	return id.String()
}

// chainErrorResponse maps a directory failure: timeouts are 504, bad input 400, the rest 500.
func chainErrorResponse(c *gin.Context, err error, msg string) {
	switch {
	case directory.IsTimeout(err):
		c.JSON(http.StatusGatewayTimeout, schema.RespErr{Err: schema.ErrRpcTimeout.Error()})
	case errors.Is(err, schema.ErrMissingField), errors.Is(err, schema.ErrInvalidName),
		errors.Is(err, schema.ErrInvalidAddress), errors.Is(err, schema.ErrInvalidYears):
		errorResponse(c, err.Error())
	default:
		internalErrorResponse(c, msg)
	}
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
