package service

import (
	"context"

	kafkaconsumer "prophecy/internal/platform/kafka/consumer"
	"prophecy/pkg/platform/events"
)

// Sink adapts the service to the publisher's in-process delivery path. Used
// when no broker is configured, so resolutions still mint.
type Sink struct {
	service *Service
}

func NewSink(service *Service) *Sink {
	return &Sink{service: service}
}

func (s *Sink) Deliver(ctx context.Context, event events.Event) error {
	return s.service.HandleMintRequest(ctx, event)
}

// TopicHandler adapts the service to the broker consumer path. An
// undecodable message is returned as an error so it is not committed.
type TopicHandler struct {
	service *Service
}

func NewTopicHandler(service *Service) *TopicHandler {
	return &TopicHandler{service: service}
}

func (h *TopicHandler) Handle(ctx context.Context, msg *kafkaconsumer.Message) error {
	event, err := events.UnmarshalPayload(msg.Value)
	if err != nil {
		return err
	}
	return h.service.HandleMintRequest(ctx, event)
}
