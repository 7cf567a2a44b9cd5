package main

import (
	"fmt"

	"go_purlfy/app/http_purify_app"
	"go_purlfy/utils"

	"github.com/go-chassis/go-chassis/v2"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the purify REST API",
	Long: "Start a go-chassis REST server exposing /purify, /statistics and /rulesets.\n" +
		"The listen address and other server settings come from the chassis conf directory ($CHASSIS_HOME/conf).",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := utils.GetLogger()
		app, err := InitializeApp(&opts)
		if err != nil {
			return err
		}
		defer app.Close()

		// 启动时加载失败不致命, 可以通过 /rulesets/reload 重试
		if names, err := app.LoadRules(cmd.Context()); err != nil {
			logger.Warnf("failed to load rules: %v", err)
		} else {
			logger.Infof("enabled rules: %v", names)
		}

		chassis.RegisterSchema("rest", http_purify_app.NewPurifyController(app.Purifier, app.Rules))
		if err := chassis.Init(); err != nil {
			return fmt.Errorf("failed to init chassis: %w", err)
		}
		if cancel, err := http_purify_app.RegisterMetrics(app.Purifier); err != nil {
			logger.Warnf("failed to register metrics: %v", err)
		} else {
			defer cancel()
		}

		fmt.Println(styleInfo.Render(fmt.Sprintf("purlfy %s serving, %d rules loaded", version, app.Purifier.RuleCount())))
		return chassis.Run()
	},
}
