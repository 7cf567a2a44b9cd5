package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/internal/infra/fetcher"
)

const listFile = "list.json"

// fileRuleSetSource 读取 <dir>/list.json 与 <dir>/<name>.json
type fileRuleSetSource struct {
	dir string
}

// remoteRuleSetSource 读取 <base>list.json 与 <base><name>.min.json
type remoteRuleSetSource struct {
	base   string
	getter RemoteGetter
}

// NewRuleSetSource remoteBase 配置时使用远端, 否则使用本地目录
func NewRuleSetSource(c *configs.Config, getter RemoteGetter) RuleSetSourceIface {
	if c.Rules.RemoteBase != "" {
		return NewRemoteRuleSetSource(c.Rules.RemoteBase, getter)
	}
	return NewFileRuleSetSource(c.Rules.Dir)
}

func NewFileRuleSetSource(dir string) RuleSetSourceIface {
	return &fileRuleSetSource{dir: dir}
}

func NewRemoteRuleSetSource(base string, getter RemoteGetter) RuleSetSourceIface {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &remoteRuleSetSource{base: base, getter: getter}
}

var (
	_ RuleSetSourceIface = (*fileRuleSetSource)(nil)
	_ RuleSetSourceIface = (*remoteRuleSetSource)(nil)
)

func (s *fileRuleSetSource) ListNames(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, listFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read rule list: %w", err)
	}
	return decodeNameList(data)
}

func (s *fileRuleSetSource) FetchRuleSet(_ context.Context, name string) (*model.RuleSet, error) {
	if err := model.ValidateRuleSetName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRuleSetNotFound, name)
		}
		return nil, fmt.Errorf("failed to read rule set %s: %w", name, err)
	}
	return model.NewRuleSet(name, data, model.RuleSetSourceFile)
}

func (s *remoteRuleSetSource) ListNames(ctx context.Context) ([]string, error) {
	data, err := s.getter.GetBytes(ctx, s.base+listFile)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule list: %w", err)
	}
	return decodeNameList(data)
}

func (s *remoteRuleSetSource) FetchRuleSet(ctx context.Context, name string) (*model.RuleSet, error) {
	if err := model.ValidateRuleSetName(name); err != nil {
		return nil, err
	}
	data, err := s.getter.GetBytes(ctx, s.base+name+".min.json")
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrRuleSetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule set %s: %w", name, err)
	}
	return model.NewRuleSet(name, data, model.RuleSetSourceRemote)
}

func decodeNameList(data []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("rule list must be a JSON array of names: %w", err)
	}
	return names, nil
}
