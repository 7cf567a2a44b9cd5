package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go_purlfy/internal/domain/iface"
	"go_purlfy/internal/domain/services"
	"go_purlfy/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxParallelPurify 同时净化的 URL 数量上限
const maxParallelPurify = 8

func runPurify(cmd *cobra.Command, urls []string) error {
	app, err := InitializeApp(&opts)
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.LoadRules(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	utils.GetLogger().Infof("enabled rules: %v", names)

	results, err := purifyAll(cmd.Context(), app.Purifier, urls)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		for i, res := range results {
			if err := enc.Encode(struct {
				Input string `json:"input"`
				*services.PurifyResult
			}{urls[i], res}); err != nil {
				return err
			}
		}
		return nil
	}
	for i, res := range results {
		fmt.Println(renderResult(urls[i], res))
	}
	return nil
}

// purifyAll 并发净化, 结果与输入顺序一致
func purifyAll(ctx context.Context, purifier iface.PurifyService, urls []string) ([]*services.PurifyResult, error) {
	results := make([]*services.PurifyResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPurify)
	for i, u := range urls {
		g.Go(func() error {
			res, err := purifier.Purify(gctx, u)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
