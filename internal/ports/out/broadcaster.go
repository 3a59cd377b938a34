package out

import (
	"context"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// StatusBroadcaster 把已提交的状态变更推给当前订阅者
// 尽力而为：单个连接投递失败要被隔离，既不能阻塞其他连接也不能让发布失败
// 实现返回时所有投递都已尝试过，但不保证对端收到
type StatusBroadcaster interface {
	// Broadcast 向 faculty_id 主题及通配 all 主题的订阅者投递事件
	Broadcast(ctx context.Context, event *entity.StatusEvent)
}
