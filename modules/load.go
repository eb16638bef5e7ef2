package modules

import (
	"github.com/retailcloud/retail-sdk/modules/core"
	"github.com/retailcloud/retail-sdk/modules/retail"
	"github.com/retailcloud/retail-sdk/pkg/application"
)

// BuiltIn assembles the default module set. Core always loads first: the
// verticals depend on the tenancy services it registers.
func BuiltIn(opts *core.ModuleOptions) []application.Module {
	return []application.Module{
		core.NewModule(opts),
		retail.NewModule(),
	}
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
