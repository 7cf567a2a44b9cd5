package http_purify_app

import (
	"fmt"
	"net/http"

	rf "github.com/go-chassis/go-chassis/v2/server/restful"
)

// readPurifyRequest 兼容 GET ?url= 和 JSON body 两种调用方式
func readPurifyRequest(b *rf.Context) (*PurifyRequest, error) {
	var req PurifyRequest
	r := b.ReadRequest()
	if r.Method == http.MethodGet {
		req.URL = r.URL.Query().Get("url")
	} else if err := b.ReadEntity(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func requestLabels(r *http.Request) map[string]string {
	return map[string]string{
		"method":   r.Method,
		"endpoint": r.URL.Path,
	}
}
