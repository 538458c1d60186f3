package events

import (
	"context"
	"sync"
)

// Recorder 把事件保存在内存中，供测试断言
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(ctx context.Context, routingKey string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Type: routingKey, Data: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types 返回已记录事件的类型，按发布顺序
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
