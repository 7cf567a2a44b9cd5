package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go_purlfy/internal/domain/iface"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// testCase 规则测试用例, output 末尾的 "/" 不参与比较
type testCase struct {
	Mode   string `json:"mode"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

type caseResult struct {
	testCase
	Actual string
	Pass   bool
}

var ruleFiles []string

var testCmd = &cobra.Command{
	Use:   "test <cases.json>",
	Short: "Run rule test cases",
	Long: "Purify every case input and compare it with the expected output.\n" +
		"Rules come from --rules-file documents when given, otherwise from the configured rule sets.\n" +
		"Fetch and lambda rules are enabled unless --fetch / --lambda say otherwise.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := readCases(args[0])
		if err != nil {
			return err
		}

		if !opts.fetchSet {
			opts.fetch, opts.fetchSet = true, true
		}
		if !opts.lambdaSet {
			opts.lambda, opts.lambdaSet = true, true
		}
		app, err := InitializeApp(&opts)
		if err != nil {
			return err
		}
		defer app.Close()

		if len(ruleFiles) > 0 {
			docs := make([][]byte, 0, len(ruleFiles))
			for _, f := range ruleFiles {
				doc, err := os.ReadFile(f)
				if err != nil {
					return fmt.Errorf("failed to read rules file: %w", err)
				}
				docs = append(docs, doc)
			}
			if err := app.Purifier.ImportRulesJSON(docs...); err != nil {
				return err
			}
		} else if _, err := app.LoadRules(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		results, err := runCases(cmd.Context(), app.Purifier, cases)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			fmt.Println(renderCase(r))
			if !r.Pass {
				failed++
			}
		}
		fmt.Printf("* Tests: %d, Failed: %d\n", len(results), failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d cases failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	testCmd.Flags().StringArrayVar(&ruleFiles, "rules-file", nil, "rule JSON document to import (repeatable)")
}

func readCases(path string) ([]testCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test cases: %w", err)
	}
	var cases []testCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse test cases: %w", err)
	}
	return cases, nil
}

// runCases 并发执行用例, 结果与输入顺序一致
func runCases(ctx context.Context, purifier iface.PurifyService, cases []testCase) ([]caseResult, error) {
	results := make([]caseResult, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPurify)
	for i, tc := range cases {
		g.Go(func() error {
			res, err := purifier.Purify(gctx, tc.Input)
			if err != nil {
				return err
			}
			results[i] = caseResult{
				testCase: tc,
				Actual:   res.URL,
				Pass:     strings.TrimSuffix(res.URL, "/") == strings.TrimSuffix(tc.Output, "/"),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
