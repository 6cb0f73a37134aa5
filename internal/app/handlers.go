package app

import (
	"net/http"
	"slices"
	"time"

	"lineLoad/internal/failover"
	"lineLoad/internal/model"
	"lineLoad/internal/version"

	"github.com/gin-gonic/gin"
)

// HealthView /health 响应
type HealthView struct {
	Status string         `json:"status"`
	Phase  failover.Phase `json:"phase"`
	API    string         `json:"api,omitempty"`
	Uptime int64          `json:"uptime_seconds"`
	Store  string         `json:"store"`
	Build  string         `json:"version"`
}

// ProxyPoolView 代理池快照
type ProxyPoolView struct {
	Fixed    string           `json:"fixed,omitempty"`
	Weights  []model.Endpoint `json:"weights,omitempty"`
	Filtered bool             `json:"filtered"`
}

// EndpointsView /public/endpoints 响应
type EndpointsView struct {
	API           model.ResolvedEndpoint   `json:"api"`
	Status        failover.Status          `json:"status"`
	ProxyDisabled []string                 `json:"proxy_disabled"`
	Proxies       map[string]ProxyPoolView `json:"proxies"`
}

// handleHealth 存储不可用时返回503，端点检查结果不影响存活判断
func (s *Server) handleHealth(c *gin.Context) {
	view := HealthView{
		Status: "ok",
		Store:  "ok",
		Uptime: int64(time.Since(s.startedAt).Seconds()),
		Phase:  s.ctrl.APIStatus().Phase,
		Build:  version.Short(),
	}
	if api, err := s.ctrl.API(); err == nil {
		view.API = api.Value
	}

	if err := s.pingStore(c.Request.Context()); err != nil {
		view.Status = "degraded"
		view.Store = err.Error()
		RespondJSON(c, http.StatusServiceUnavailable, view)
		return
	}
	RespondJSON(c, http.StatusOK, view)
}

func (s *Server) handleEndpoints(c *gin.Context) {
	view := EndpointsView{
		Status:        s.ctrl.APIStatus(),
		ProxyDisabled: s.ctrl.ProxyDisabled(),
		Proxies:       make(map[string]ProxyPoolView, len(model.ProxyKinds)),
	}
	if api, err := s.ctrl.API(); err == nil {
		view.API = api
	}
	for _, kind := range model.ProxyKinds {
		pool, ok := s.ctrl.ProxyPool(kind)
		if !ok {
			continue
		}
		pv := ProxyPoolView{Weights: pool.Weights(), Filtered: pool.Filtered()}
		if host, fixed := pool.Fixed(); fixed {
			pv.Fixed = host
		}
		view.Proxies[string(kind)] = pv
	}
	RespondJSON(c, http.StatusOK, view)
}

func (s *Server) handlePickProxy(c *gin.Context) {
	kind := model.PoolKind(c.Param("kind"))
	if !slices.Contains(model.ProxyKinds, kind) {
		RespondErrorMsg(c, http.StatusNotFound, "unknown proxy kind: "+string(kind))
		return
	}
	host, err := s.ctrl.PickProxy(kind)
	if err != nil {
		RespondError(c, statusForError(err), err)
		return
	}
	RespondJSON(c, http.StatusOK, gin.H{"kind": kind, "host": host})
}

func (s *Server) handleEvents(c *gin.Context) {
	RespondJSON(c, http.StatusOK, s.bus.Recent())
}

func (s *Server) handleCheckAPI(c *gin.Context) {
	res, err := s.ctrl.CheckAPI(c.Request.Context())
	if err != nil {
		RespondErrorWithData(c, statusForError(err), err, res)
		return
	}
	RespondJSON(c, http.StatusOK, res)
}

func (s *Server) handleCheckProxy(c *gin.Context) {
	res, err := s.ctrl.CheckProxies(c.Request.Context())
	if err != nil {
		RespondErrorWithData(c, statusForError(err), err, res)
		return
	}
	RespondJSON(c, http.StatusOK, res)
}
