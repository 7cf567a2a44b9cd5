package repo

import (
	"go_purlfy/internal/infra/storage"

	"github.com/google/wire"
)

var Reposet = wire.NewSet(
	NewRuleRepoConfig,
	storage.StorageSet,
	NewRuleSetRepoImpl,
)
