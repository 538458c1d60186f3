// Package events 发布测评生命周期事件（创建、完成、删除）到 RabbitMQ。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"career_coach_backend/internal/config"
	"career_coach_backend/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	AssessmentCreated   = "assessment.created"
	AssessmentCompleted = "assessment.completed"
	AssessmentDeleted   = "assessment.deleted"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// Event 消息体
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// NoopPublisher 未启用事件时使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, payload any) error { return nil }
func (NoopPublisher) Close() error { return nil }

type AMQPPublisher struct {
	cfg config.EventsConfig

	// amqp.Channel 不能并发使用
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	connLost chan *amqp.Error
	chLost   chan *amqp.Error
}

// NewAMQPPublisher 连接 broker 并声明 topic exchange
func NewAMQPPublisher(cfg config.EventsConfig) (*AMQPPublisher, error) {
	p := &AMQPPublisher{cfg: cfg}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect 调用方持有 mu
func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.conn = conn
	p.ch = ch
	p.connLost = conn.NotifyClose(make(chan *amqp.Error, 1))
	p.chLost = ch.NotifyClose(make(chan *amqp.Error, 1))
	return nil
}

// alive 连接或通道被关闭后 NotifyClose 的 channel 会变为可读
func (p *AMQPPublisher) alive() bool {
	if p.conn == nil || p.ch == nil {
		return false
	}
	select {
	case <-p.connLost:
		return false
	case <-p.chLost:
		return false
	default:
		return true
	}
}

func (p *AMQPPublisher) reconnect() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn, p.ch = nil, nil

	if err := p.connect(); err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}
	logger.Log.Info("Event publisher reconnected", zap.String("exchange", p.cfg.Exchange))
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := Marshal(routingKey, payload, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.alive() {
		if err := p.reconnect(); err != nil {
			return err
		}
	}

	return p.ch.Publish(
		p.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func Marshal(routingKey string, payload any, at time.Time) ([]byte, error) {
	return json.Marshal(Event{Type: routingKey, OccurredAt: at.UTC(), Data: payload})
}

// NewPublisher 按配置创建发布器。broker 事件经 Dispatcher 异步按序投递，连接失败时退回 NoopPublisher
func NewPublisher(cfg config.EventsConfig) Publisher {
	if !cfg.Enabled {
		return NoopPublisher{}
	}
	p, err := NewAMQPPublisher(cfg)
	if err != nil {
		logger.Log.Warn("Event publishing disabled", zap.String("url", redact(cfg.URL)), zap.Error(err))
		return NoopPublisher{}
	}
	logger.Log.Info("Event publisher connected", zap.String("exchange", cfg.Exchange))
	return NewDispatcher(p, defaultQueueSize)
}

// Emit 事件发布失败只记录日志，不影响主流程
func Emit(ctx context.Context, p Publisher, routingKey string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		logger.Log.Warn("Failed to publish event", zap.String("routingKey", routingKey), zap.Error(err))
	}
}

func redact(url string) string {
	u, err := amqp.ParseURI(url)
	if err != nil {
		return ""
	}
	vhost := u.Vhost
	if !strings.HasPrefix(vhost, "/") {
		vhost = "/" + vhost
	}
	return fmt.Sprintf("%s://%s:%d%s", u.Scheme, u.Host, u.Port, vhost)
}
