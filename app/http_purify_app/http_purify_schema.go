package http_purify_app

import (
	"errors"
	"net/http"
	"runtime/debug"

	"go_purlfy/internal/domain/iface"
	"go_purlfy/internal/infra/storage"
	"go_purlfy/utils"

	"github.com/go-chassis/go-chassis/v2/pkg/metrics"
	rf "github.com/go-chassis/go-chassis/v2/server/restful"
)

const (
	requestCounter = "purlfy_request_counter"
	contentJSON    = "application/json"
)

// 测试时替换
var counterAdd = metrics.CounterAdd

type PurifyController struct {
	PurifyService     iface.PurifyService
	RuleManageService iface.RuleManageService
}

func NewPurifyController(purifyService iface.PurifyService, ruleManageService iface.RuleManageService) *PurifyController {
	return &PurifyController{
		PurifyService:     purifyService,
		RuleManageService: ruleManageService,
	}
}

// begin 记录请求指标并兜底 panic, 返回值需 defer 调用
func (c *PurifyController) begin(b *rf.Context, name string) func() {
	logger := utils.GetLogger()
	logger.Debugf("%s Begin", name)
	if err := counterAdd(requestCounter, 1, requestLabels(b.ReadRequest())); err != nil {
		logger.Debugf("record request metric err: %v", err)
	}
	return func() {
		if err := recover(); err != nil {
			logger.WithFields(map[string]interface{}{
				"panic": err,
				"stack": string(debug.Stack()),
			}).Error("handle request panic")
			writeError(b, http.StatusInternalServerError, errors.New("Internal server error"))
		}
	}
}

func writeError(b *rf.Context, status int, err error) {
	if werr := b.WriteHeaderAndJSON(status, ErrorResponse{Error: err.Error()}, contentJSON); werr != nil {
		utils.GetLogger().Errorf("write response err: %v", werr)
	}
}

func writeOK(b *rf.Context, v any) {
	if err := b.WriteHeaderAndJSON(http.StatusOK, v, contentJSON); err != nil {
		utils.GetLogger().Errorf("write response err: %v", err)
	}
}

func (c *PurifyController) Purify(b *rf.Context) {
	defer c.begin(b, "Purify")()
	logger := utils.GetLogger()

	req, err := readPurifyRequest(b)
	if err != nil {
		logger.Errorf("read purify request err: %v", err)
		writeError(b, http.StatusBadRequest, err)
		return
	}

	res, err := c.PurifyService.Purify(b.Ctx, req.URL)
	if err != nil {
		// 只有请求被取消时才会出错
		logger.Warnf("purify %s aborted: %v", req.URL, err)
		writeError(b, http.StatusServiceUnavailable, err)
		return
	}
	writeOK(b, res)
}

func (c *PurifyController) GetStatistics(b *rf.Context) {
	defer c.begin(b, "GetStatistics")()
	writeOK(b, StatisticsResponse{
		Statistics: c.PurifyService.GetStatistics(),
		Rules:      c.PurifyService.RuleCount(),
	})
}

func (c *PurifyController) ClearStatistics(b *rf.Context) {
	defer c.begin(b, "ClearStatistics")()
	c.PurifyService.ClearStatistics()
	writeOK(b, MessageResponse{Message: "success"})
}

func (c *PurifyController) ListRuleSets(b *rf.Context) {
	defer c.begin(b, "ListRuleSets")()
	names, err := c.RuleManageService.ListRuleSetNames(b.Ctx)
	if err != nil {
		utils.GetLogger().Errorf("list rule sets err: %v", err)
		writeError(b, http.StatusBadGateway, err)
		return
	}
	writeOK(b, RuleSetsResponse{Names: names})
}

func (c *PurifyController) SaveRuleSet(b *rf.Context) {
	defer c.begin(b, "SaveRuleSet")()
	logger := utils.GetLogger()

	var req SaveRuleSetRequest
	if err := b.ReadEntity(&req); err != nil {
		logger.Errorf("read request body err: %v", err)
		writeError(b, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Errorf("validate request err: %v", err)
		writeError(b, http.StatusBadRequest, err)
		return
	}

	if err := c.RuleManageService.SaveRuleSet(b.Ctx, req.Name, req.Rules); err != nil {
		logger.Errorf("save rule set %s err: %v", req.Name, err)
		writeError(b, http.StatusInternalServerError, err)
		return
	}
	writeOK(b, MessageResponse{Message: "success"})
}

func (c *PurifyController) DeleteRuleSet(b *rf.Context) {
	defer c.begin(b, "DeleteRuleSet")()
	name := b.ReadQueryParameter("name")
	if err := c.RuleManageService.DeleteRuleSet(b.Ctx, name); err != nil {
		utils.GetLogger().Errorf("delete rule set %s err: %v", name, err)
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrRuleSetNotFound) {
			status = http.StatusNotFound
		}
		writeError(b, status, err)
		return
	}
	writeOK(b, MessageResponse{Message: "success"})
}

func (c *PurifyController) ReloadRuleSets(b *rf.Context) {
	defer c.begin(b, "ReloadRuleSets")()
	logger := utils.GetLogger()

	var req ReloadRuleSetsRequest
	if err := b.ReadEntity(&req); err != nil {
		logger.Errorf("read request body err: %v", err)
		writeError(b, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(b, http.StatusBadRequest, err)
		return
	}

	names, err := c.RuleManageService.ReloadRuleSets(b.Ctx, req.Names, req.Refresh)
	if err != nil {
		logger.Errorf("reload rule sets err: %v", err)
		writeError(b, http.StatusBadGateway, err)
		return
	}
	writeOK(b, RuleSetsResponse{Names: names})
}

func (c *PurifyController) URLPatterns() []rf.Route {
	return []rf.Route{
		{Method: http.MethodGet, Path: "/purify", ResourceFunc: c.Purify,
			Returns: []*rf.Returns{{Code: 200}, {Code: 400}}},
		{Method: http.MethodPost, Path: "/purify", ResourceFunc: c.Purify,
			Returns: []*rf.Returns{{Code: 200}, {Code: 400}}},
		{Method: http.MethodGet, Path: "/statistics", ResourceFunc: c.GetStatistics,
			Returns: []*rf.Returns{{Code: 200}}},
		{Method: http.MethodDelete, Path: "/statistics", ResourceFunc: c.ClearStatistics,
			Returns: []*rf.Returns{{Code: 200}}},
		{Method: http.MethodGet, Path: "/rulesets", ResourceFunc: c.ListRuleSets,
			Returns: []*rf.Returns{{Code: 200}}},
		{Method: http.MethodPut, Path: "/rulesets", ResourceFunc: c.SaveRuleSet,
			Returns: []*rf.Returns{{Code: 200}, {Code: 400}}},
		{Method: http.MethodDelete, Path: "/rulesets", ResourceFunc: c.DeleteRuleSet,
			Returns: []*rf.Returns{{Code: 200}, {Code: 404}}},
		{Method: http.MethodPost, Path: "/rulesets/reload", ResourceFunc: c.ReloadRuleSets,
			Returns: []*rf.Returns{{Code: 200}}},
	}
}
