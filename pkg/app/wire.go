package app

import (
	"context"

	"github.com/google/wire"
)

// ProviderSet BaseApp 的 Wire 提供者
var ProviderSet = wire.NewSet(NewBaseApp)

// AppComponents 收集 Wire 注入的服务与资源
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// InitApp 将组件绑定到 BaseApp
func InitApp(app *BaseApp, comps AppComponents) *BaseApp {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// CloserFunc 将函数适配为 Closer
type CloserFunc func() error

// Close 实现 Closer
func (f CloserFunc) Close() error {
	return f()
}

// ServerFunc 将函数适配为 Server
type ServerFunc func(ctx context.Context) error

// Start 实现 Server
func (f ServerFunc) Start(ctx context.Context) error {
	return f(ctx)
}
