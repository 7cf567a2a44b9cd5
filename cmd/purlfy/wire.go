//go:build wireinject
// +build wireinject

package main

import (
	model "go_purlfy/internal/domain/model/purify_rule"
	"go_purlfy/internal/domain/services"
	"go_purlfy/internal/infra/fetcher"
	"go_purlfy/internal/infra/repo"

	"github.com/google/wire"
)

func InitializeApp(o *cliOptions) (*App, error) {
	wire.Build(
		newConfig,
		repo.Reposet,
		wire.Bind(new(model.Fetcher), new(*fetcher.HTTPFetcher)),
		services.ServiceSet,
		NewApp,
	)
	return &App{}, nil
}
