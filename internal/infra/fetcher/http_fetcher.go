package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"

	"github.com/avast/retry-go/v4"
)

// HTTPFetcher 是 redirect / visit 规则以及远端规则源使用的 HTTP 客户端
type HTTPFetcher struct {
	follow   *http.Client
	noFollow *http.Client
	config   *configs.FetchConfig
}

var _ model.Fetcher = (*HTTPFetcher)(nil)

func NewFetchConfig(c *configs.Config) *configs.FetchConfig {
	return &c.Fetch
}

func NewHTTPFetcher(config *configs.FetchConfig) *HTTPFetcher {
	return &HTTPFetcher{
		follow: &http.Client{Timeout: config.Timeout},
		noFollow: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		config: config,
	}
}

// Fetch 执行一次请求, 传输层错误按配置重试; 非 2xx 状态码不视为错误
func (f *HTTPFetcher) Fetch(ctx context.Context, req model.FetchRequest) (*model.FetchResponse, error) {
	client := f.noFollow
	if req.FollowRedirects {
		client = f.follow
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var resp *model.FetchResponse
	err := retry.Do(
		func() error {
			r, err := f.do(ctx, client, method, req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(max(f.config.RetryCount, 1))),
		retry.Delay(f.config.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	return resp, nil
}

func (f *HTTPFetcher) do(ctx context.Context, client *http.Client, method string, req model.FetchRequest) (*model.FetchResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && f.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", f.config.UserAgent)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	out := &model.FetchResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		URL:        httpResp.Request.URL.String(),
	}
	if req.ReadBody && method != http.MethodHead {
		body, err := io.ReadAll(io.LimitReader(httpResp.Body, f.config.MaxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		out.Body = string(body)
	}
	return out, nil
}

// StatusError 表示远端返回了非 200 状态码
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// GetBytes 获取远端文档, 要求 200 响应, 否则返回 *StatusError
func (f *HTTPFetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.Fetch(ctx, model.FetchRequest{
		URL:             url,
		Method:          http.MethodGet,
		FollowRedirects: true,
		ReadBody:        true,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return []byte(resp.Body), nil
}
