package sdk

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/hotdogs-ns/hns/schema"
	"gopkg.in/h2non/gentleman.v2"
)

// HnsCli talks to a running hns service.
type HnsCli struct {
	SCli *gentleman.Client
}

func New(hnsUrl string) *HnsCli {
	return &HnsCli{
		SCli: gentleman.New().URL(hnsUrl),
	}
}

func respError(resp *gentleman.Response) error {
	re := schema.RespErr{}
	if err := resp.JSON(&re); err == nil && re.Err != "" {
		return fmt.Errorf("resp failed: http code: %d, %w", resp.StatusCode, re)
	}
	return fmt.Errorf("resp failed: http code: %d, body: %s", resp.StatusCode, resp.String())
}

func (a *HnsCli) get(path string, query map[string]string, out interface{}) error {
	req := a.SCli.Get()
	req.Path(path)
	for k, v := range query {
		req.AddQuery(k, v)
	}
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		return respError(resp)
	}
	return resp.JSON(out)
}

func (a *HnsCli) post(path string, body, out interface{}) error {
	req := a.SCli.Post()
	req.Path(path)
	req.JSON(body)
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		return respError(resp)
	}
	return resp.JSON(out)
}

func (a *HnsCli) ResolveDomain(name, tld string) (schema.RespResolve, error) {
	res := schema.RespResolve{}
	err := a.post("/resolve-domain", schema.ReqResolve{Name: name, Tld: tld}, &res)
	return res, err
}

func (a *HnsCli) ReverseLookup(address string) (schema.RespReverseLookup, error) {
	res := schema.RespReverseLookup{}
	err := a.post("/reverse-lookup", schema.ReqReverseLookup{Address: address}, &res)
	return res, err
}

// ListTlds is the proxied tld listing. Like the direct one it never fails:
// any error gives an empty list.
func (a *HnsCli) ListTlds() []string {
	res := schema.RespTlds{}
	if err := a.get("/list-tlds", nil, &res); err != nil || res.Tlds == nil {
		return []string{}
	}
	return res.Tlds
}

func (a *HnsCli) GetActivityLogs(contract, tld string) ([]schema.ActivityEvent, error) {
	res := schema.RespActivityLogs{}
	err := a.post("/get-activity-logs", schema.ReqActivityLogs{Address: contract, Tld: tld}, &res)
	return res.Events, err
}

func (a *HnsCli) GetPrice(name string, years int) (schema.RespPrice, error) {
	res := schema.RespPrice{}
	err := a.get(fmt.Sprintf("/price/%s/%d", url.PathEscape(name), years), nil, &res)
	return res, err
}

func (a *HnsCli) DomainStatus(domain string, years int) (schema.RespDomainStatus, error) {
	res := schema.RespDomainStatus{}
	err := a.post("/domain-status", schema.ReqDomainStatus{Domain: domain, Years: years}, &res)
	return res, err
}

func (a *HnsCli) GetExpiration(name, tld string) (schema.RespExpiration, error) {
	res := schema.RespExpiration{}
	err := a.get(fmt.Sprintf("/expiration/%s/%s", url.PathEscape(tld), url.PathEscape(name)), nil, &res)
	return res, err
}

func (a *HnsCli) GetPortfolio(address string) (schema.RespPortfolio, error) {
	res := schema.RespPortfolio{}
	err := a.get("/portfolio/"+address, nil, &res)
	return res, err
}

// GetActivity returns the merged activity of every tld, or of tld alone when set.
func (a *HnsCli) GetActivity(tld string) ([]schema.ActivityEvent, error) {
	query := map[string]string{}
	if tld != "" {
		query["tld"] = tld
	}
	res := schema.RespActivityLogs{}
	err := a.get("/activity", query, &res)
	return res.Events, err
}

func (a *HnsCli) GetActivityHistory(tld string, page, limit int) ([]schema.ActivityEvent, error) {
	res := schema.RespActivityLogs{}
	err := a.get("/activity/history/"+url.PathEscape(tld), map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}, &res)
	return res.Events, err
}

func (a *HnsCli) GetInfo() (schema.RespInfo, error) {
	res := schema.RespInfo{}
	err := a.get("/info", nil, &res)
	return res, err
}
