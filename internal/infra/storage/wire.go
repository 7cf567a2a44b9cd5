package storage

import (
	"go_purlfy/internal/infra/fetcher"

	"github.com/google/wire"
)

// StorageSet is a Wire provider set that includes all storage-related providers
var StorageSet = wire.NewSet(
	NewGormDB,
	NewRuleSetStorage,
	NewRuleSetCache,
	fetcher.NewFetchConfig,
	fetcher.NewHTTPFetcher,
	wire.Bind(new(RemoteGetter), new(*fetcher.HTTPFetcher)),
	NewRuleSetSource,
)
