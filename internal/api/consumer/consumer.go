package consumer

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Zereker/chatbot/pkg/log"
	"github.com/Zereker/chatbot/pkg/mq"
)

// groupConsumer 由 mq.KafkaConsumer 实现
type groupConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}

// Consumer 异步任务消费者，把 Kafka 上的任务交给 task.Runner 执行
type Consumer struct {
	logger    *slog.Logger
	consumers []groupConsumer
	stopOnce  sync.Once
}

// NewConsumer 创建消费者；Kafka 未启用时返回空消费者
func NewConsumer(handler mq.MessageHandler, cfg mq.KafkaConfig) (*Consumer, error) {
	c := &Consumer{
		logger: log.Logger("consumer"),
	}

	if !cfg.Enabled {
		c.logger.Info("kafka disabled, consumer not started")
		return c, nil
	}

	jobs, err := mq.NewKafkaConsumer(cfg.Brokers, cfg.JobsConsumer(), handler)
	if err != nil {
		return nil, err
	}
	c.consumers = append(c.consumers, jobs)

	return c, nil
}

// Start 启动所有消费者
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.consumers) == 0 {
		c.logger.Info("no consumers configured, skipping start")
		return nil
	}

	c.logger.Info("starting consumers", "count", len(c.consumers))

	g, ctx := errgroup.WithContext(ctx)
	for _, consumer := range c.consumers {
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	return g.Wait()
}

// Stop 停止所有消费者，重复调用只生效一次
func (c *Consumer) Stop() error {
	c.stopOnce.Do(func() {
		c.logger.Info("stopping consumers")

		for _, consumer := range c.consumers {
			if err := consumer.Stop(); err != nil {
				c.logger.Error("failed to stop consumer", "error", err)
			}
		}
	})

	return nil
}
