package nostr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonostr "github.com/nbd-wtf/go-nostr"
	"golang.org/x/time/rate"
)

// Publisher delivers a text note to the outside network. Implementations
// must return nil only after at least one relay accepted the event.
type Publisher interface {
	Publish(ctx context.Context, content string) error
}

// Config holds relay publisher configuration
type Config struct {
	SecretKey      string
	Relays         []string
	PublishTimeout time.Duration
	RateLimit      float64 // events per second across all relays
	RateBurst      int
}

// RelayPublisher signs text notes with the configured key and publishes
// them to one or more Nostr relays.
type RelayPublisher struct {
	secretKey string
	pubKey    string
	relays    []string
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewRelayPublisher validates the secret key and constructs a publisher
func NewRelayPublisher(config *Config, logger *slog.Logger) (*RelayPublisher, error) {
	if len(config.Relays) == 0 {
		return nil, fmt.Errorf("at least one relay is required")
	}

	pubKey, err := gonostr.GetPublicKey(config.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid nostr secret key: %w", err)
	}

	timeout := config.PublishTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second // default
	}

	limit := rate.Limit(config.RateLimit)
	if config.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := config.RateBurst
	if burst <= 0 {
		burst = 1
	}

	logger.Info("Nostr relay publisher initialized",
		slog.String("pubkey", pubKey),
		slog.Int("relay_count", len(config.Relays)),
		slog.Duration("publish_timeout", timeout),
	)

	return &RelayPublisher{
		secretKey: config.SecretKey,
		pubKey:    pubKey,
		relays:    config.Relays,
		timeout:   timeout,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
	}, nil
}

// Publish signs content as a kind-1 text note and sends it to every
// configured relay. It succeeds if at least one relay accepts the event.
// The per-call deadline bounds how long a hung relay can hold a worker slot.
func (p *RelayPublisher) Publish(ctx context.Context, content string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait canceled: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	event := gonostr.Event{
		PubKey:    p.pubKey,
		CreatedAt: gonostr.Now(),
		Kind:      gonostr.KindTextNote,
		Tags:      gonostr.Tags{},
		Content:   content,
	}

	if err := event.Sign(p.secretKey); err != nil {
		return fmt.Errorf("failed to sign event: %w", err)
	}

	var lastErr error
	accepted := 0

	for _, url := range p.relays {
		if err := p.publishToRelay(ctx, url, event); err != nil {
			p.logger.Warn("Relay rejected event",
				slog.String("relay", url),
				slog.String("event_id", event.ID),
				slog.Any("error", err),
			)
			lastErr = err
			continue
		}

		p.logger.Debug("Event accepted by relay",
			slog.String("relay", url),
			slog.String("event_id", event.ID),
		)
		accepted++
	}

	if accepted == 0 {
		return fmt.Errorf("no relay accepted event %s: %w", event.ID, lastErr)
	}

	p.logger.Info("Note published to Nostr",
		slog.String("event_id", event.ID),
		slog.Int("accepted", accepted),
		slog.Int("relays", len(p.relays)),
	)

	return nil
}

func (p *RelayPublisher) publishToRelay(ctx context.Context, url string, event gonostr.Event) error {
	relay, err := gonostr.RelayConnect(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to relay %s: %w", url, err)
	}
	defer relay.Close()

	if err := relay.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish to relay %s: %w", url, err)
	}

	return nil
}

// PublicKey returns the hex public key the publisher signs with
func (p *RelayPublisher) PublicKey() string {
	return p.pubKey
}
