package http_purify_app

import (
	"go_purlfy/internal/domain/iface"
	model "go_purlfy/internal/domain/model/purify_rule"
	"go_purlfy/utils"

	"github.com/go-chassis/go-chassis/v2/pkg/metrics"
)

const statisticsGauge = "purlfy_statistics"

// 测试时替换
var gaugeSet = metrics.GaugeSet

// RegisterMetrics 创建请求计数器和统计 gauge, 并订阅统计变化.
// 需在 chassis.Init 之后调用; 返回的 cancel 取消订阅.
func RegisterMetrics(purifier iface.PurifyService) (cancel func(), err error) {
	if err := metrics.CreateCounter(metrics.CounterOpts{
		Name:   requestCounter,
		Help:   "purlfy http requests",
		Labels: []string{"method", "endpoint"},
	}); err != nil {
		return nil, err
	}
	if err := metrics.CreateGauge(metrics.GaugeOpts{
		Name:   statisticsGauge,
		Help:   "purlfy cumulative purification statistics",
		Labels: []string{"counter"},
	}); err != nil {
		return nil, err
	}
	publishStatistics(purifier.GetStatistics())
	return purifier.Subscribe(func(model.Statistics) {
		publishStatistics(purifier.GetStatistics())
	}), nil
}

func publishStatistics(s model.Statistics) {
	for name, v := range map[string]int64{
		"url":        s.URL,
		"param":      s.Param,
		"decoded":    s.Decoded,
		"redirected": s.Redirected,
		"visited":    s.Visited,
		"char":       s.Char,
	} {
		if err := gaugeSet(statisticsGauge, float64(v), map[string]string{"counter": name}); err != nil {
			utils.GetLogger().Debugf("set %s gauge err: %v", name, err)
		}
	}
}
