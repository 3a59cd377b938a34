package out

import (
	"context"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

// EventPublisher 状态变更事件流，供下游系统（值班表、统计）消费
// 只在落库成功之后发布；发布失败由调用方记日志，不影响本次更新的结果
type EventPublisher interface {
	// PublishStatusChanged 发布状态变更事件
	PublishStatusChanged(ctx context.Context, event *entity.StatusEvent) error
	// Close 释放底层生产者
	Close() error
}
