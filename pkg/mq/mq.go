package mq

import "context"

// MessageHandler 消息处理函数
type MessageHandler func(ctx context.Context, topic string, message []byte) error

// MessageQueue 消息队列接口
type MessageQueue interface {
	Publish(ctx context.Context, topic string, key string, message []byte) error
	Subscribe(topic string, handler MessageHandler) error
	Close() error
}
