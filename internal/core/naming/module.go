package naming

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-graph/config"
	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Demangler pkgif.Demangler
	Pairer    pkgif.ServicePairer
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("naming",
		fx.Provide(Provide),
	)
}

// Provide 构造反混淆器与服务配对器
func Provide(p Params) (Result, error) {
	size := DefaultCacheSize
	if p.Config != nil {
		size = p.Config.Graph.DemangleCacheSize
	}
	d, err := NewDemangler(size)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Demangler: d,
		Pairer:    NewServicePairer(),
	}, nil
}
