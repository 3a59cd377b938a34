package redisps

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/out"
)

// statusChannel 状态事件的 Redis 频道
const statusChannel = "faculty:status:events"

// Relay 多实例部署时的扇出中转
// 本进程提交的事件先 PUBLISH 到 Redis，各实例的 Run 循环再喂给本地 Hub
// 这样每个实例只管自己持有的连接，单实例部署可以不启用
type Relay struct {
	client *redis.Client
	local  out.StatusBroadcaster
}

// NewRelay 创建中转器，local 是本实例的 Hub
func NewRelay(client *redis.Client, local out.StatusBroadcaster) *Relay {
	return &Relay{client: client, local: local}
}

// Broadcast 把事件发往 Redis 频道，失败只记日志
// 实现 out.StatusBroadcaster
func (r *Relay) Broadcast(ctx context.Context, event *entity.StatusEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.L().Warn("marshal status event failed", zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, statusChannel, data).Err(); err != nil {
		zap.L().Warn("relay publish failed",
			zap.String("faculty_id", event.FacultyID),
			zap.Error(err))
	}
}

// Run 订阅 Redis 频道并把事件交给本地 Hub，ctx 取消后退出
func (r *Relay) Run(ctx context.Context) {
	sub := r.client.Subscribe(ctx, statusChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event entity.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				zap.L().Warn("bad status event payload", zap.Error(err))
				continue
			}
			r.local.Broadcast(ctx, &event)
		}
	}
}
