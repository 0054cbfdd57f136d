package service

import (
	"context"

	"collabnote-be/internal/dto"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains notebook-list-updated events from the bus and
// pushes a fresh summary list to every connected session.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	repo        contract.INotebookRepository
	broadcaster Broadcaster
	logger      logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo contract.INotebookRepository,
	broadcaster Broadcaster,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		repo:        repo,
		broadcaster: broadcaster,
		logger:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	summaries, err := cs.repo.List(ctx)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to refresh notebook list", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	cs.broadcaster.ToAll(dto.EventNotebooks, summaries)
}
