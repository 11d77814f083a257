package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/observability"
)

const verdictBufferSize = 16

// VerdictService fans submit verdicts out to the user's open streams on every node.
type VerdictService interface {
	Publish(ctx context.Context, notification dto.VerdictNotification) error
	Subscribe(userID string) (<-chan dto.VerdictNotification, func())
	Start(ctx context.Context)
}

type verdictService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	broker       *verdictBroker
	nodeID       string
	now          func() time.Time
}

type verdictEvent struct {
	Source       string                  `json:"source"`
	Notification dto.VerdictNotification `json:"notification"`
}

type verdictBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.VerdictNotification]struct{}
}

// NewVerdictService constructs the verdict publisher. Either transport may be nil.
func NewVerdictService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) VerdictService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":verdicts"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".verdicts"
	}

	return &verdictService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "verdict_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-ide-api/internal/service/verdict"),
		broker: &verdictBroker{
			subscribers: make(map[string]map[chan dto.VerdictNotification]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *verdictService) Start(ctx context.Context) {
	// NATS carries fan-out when configured; redis pub/sub is the fallback.
	switch {
	case s.nats != nil && s.natsSubject != "":
		go s.consumeNATS(ctx)
	case s.redis != nil && s.redisChannel != "":
		go s.consumeRedis(ctx)
	}
}

func (s *verdictService) Publish(ctx context.Context, notification dto.VerdictNotification) error {
	if strings.TrimSpace(notification.UserID) == "" {
		return errors.New("verdict user id is required")
	}
	if notification.SentAt.IsZero() {
		notification.SentAt = s.now().UTC()
	}

	ctx, span := s.tracer.Start(ctx, "verdicts.publish", trace.WithAttributes(
		attribute.String("verdict.user_id", notification.UserID),
		attribute.String("verdict.problem_id", notification.Verdict.ProblemID),
		attribute.Bool("verdict.success", notification.Verdict.Success),
	))
	defer span.End()

	s.broker.broadcast(notification.UserID, notification)
	observability.VerdictsPublished().WithLabelValues("local").Inc()

	if err := s.publish(ctx, notification); err != nil {
		span.RecordError(err)
		s.logger.Warn().Err(err).Msg("failed to publish verdict to broker")
		return err
	}
	return nil
}

func (s *verdictService) Subscribe(userID string) (<-chan dto.VerdictNotification, func()) {
	channel := make(chan dto.VerdictNotification, verdictBufferSize)

	s.broker.subscribe(userID, channel)
	observability.SSEClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.SSEClientsActive().Dec()
		})
	}

	return channel, cleanup
}

func (s *verdictService) publish(ctx context.Context, notification dto.VerdictNotification) error {
	payload, err := json.Marshal(verdictEvent{Source: s.nodeID, Notification: notification})
	if err != nil {
		return err
	}

	if s.nats != nil && s.natsSubject != "" {
		return s.nats.Publish(s.natsSubject, payload)
	}
	if s.redis != nil && s.redisChannel != "" {
		return s.redis.Publish(ctx, s.redisChannel, payload).Err()
	}
	return nil
}

func (s *verdictService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("verdict redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *verdictService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats verdict subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain verdict nats subscription")
		}
	}()
}

func (s *verdictService) handleEvent(payload []byte) {
	var event verdictEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid verdict event payload")
		return
	}
	if event.Source == s.nodeID {
		return
	}

	observability.VerdictsPublished().WithLabelValues("remote").Inc()
	s.broker.broadcast(event.Notification.UserID, event.Notification)
}

func (b *verdictBroker) subscribe(userID string, ch chan dto.VerdictNotification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.VerdictNotification]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *verdictBroker) unsubscribe(userID string, ch chan dto.VerdictNotification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		if _, exists := subscribers[ch]; !exists {
			return
		}
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *verdictBroker) broadcast(userID string, notification dto.VerdictNotification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
