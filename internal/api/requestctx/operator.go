// 文件路径: internal/api/requestctx/operator.go
// 模块说明: 这是 internal 模块里的请求上下文逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package requestctx

import (
	"context"

	"github.com/silverlode/fleetpanel/internal/service"
)

type contextKey string

const (
	operatorKey contextKey = "operator"
	nodeIDKey   contextKey = "node_id"
)

// WithOperator 把认证后的操作者身份挂到请求上下文。
func WithOperator(ctx context.Context, op service.Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// GetOperator 读取请求上下文中的操作者身份。
func GetOperator(ctx context.Context) (service.Operator, bool) {
	op, ok := ctx.Value(operatorKey).(service.Operator)
	return op, ok
}

// WithNodeID 把节点守卫解析出的节点 ID 挂到请求上下文。
func WithNodeID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, nodeIDKey, id)
}

// GetNodeID 读取请求上下文中的节点 ID。
func GetNodeID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(nodeIDKey).(int64)
	return id, ok
}
