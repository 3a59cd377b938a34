package ws

import "sync"

// TopicAll 通配主题，订阅后能收到所有教师的状态变更
// 目录页"全员实时"视图用它，必须由连接显式订阅，不存在隐式广播
const TopicAll = "all"

// SubscriptionRegistry 连接与主题的订阅关系，主题即教师工号或 TopicAll
// 纯内存，进程重启即清空；丢了只影响实时推送，不影响已持久化的状态
type SubscriptionRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]struct{} // topic -> connID 集合
	conns  map[string]map[string]struct{} // connID -> topic 集合
}

// NewSubscriptionRegistry 创建订阅表
func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		topics: make(map[string]map[string]struct{}),
		conns:  make(map[string]map[string]struct{}),
	}
}

// Subscribe 登记订阅，重复订阅是幂等的
func (r *SubscriptionRegistry) Subscribe(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[topic]; !ok {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][connID] = struct{}{}

	if _, ok := r.conns[connID]; !ok {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][topic] = struct{}{}
}

// Unsubscribe 取消单个主题的订阅
func (r *SubscriptionRegistry) Unsubscribe(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conns, ok := r.topics[topic]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.topics, topic)
		}
	}
	if topics, ok := r.conns[connID]; ok {
		delete(topics, topic)
		if len(topics) == 0 {
			delete(r.conns, connID)
		}
	}
}

// UnsubscribeAll 连接断开时清掉它的全部订阅
func (r *SubscriptionRegistry) UnsubscribeAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for topic := range r.conns[connID] {
		if conns, ok := r.topics[topic]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.topics, topic)
			}
		}
	}
	delete(r.conns, connID)
}

// SubscribersOf 返回主题当前订阅者的快照
func (r *SubscriptionRegistry) SubscribersOf(topic string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.topics[topic]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	return ids
}

// TopicsOf 返回连接当前订阅的主题快照
func (r *SubscriptionRegistry) TopicsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics, ok := r.conns[connID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(topics))
	for t := range topics {
		out = append(out, t)
	}
	return out
}
