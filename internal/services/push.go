package services

import (
	"context"
	"fmt"

	"togethermiles-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Pusher delivers an out-of-band push for a stored notification. A nil Pusher
// means push is disabled; stored notifications still flow over the stream.
type Pusher interface {
	Push(ctx context.Context, coupleID, recipientNickname, message string)
}

// APNSPusher sends pushes through Apple's APNs using the registered device
// token of the recipient partner.
type APNSPusher struct {
	client *apns2.Client
	topic  string
	tokens *repository.PushTokenRepository
}

// NewAPNSPusher loads the p12 certificate and builds a client.
func NewAPNSPusher(certFile, certPass, topic string, production bool, tokens *repository.PushTokenRepository) (*APNSPusher, error) {
	cert, err := certificate.FromP12File(certFile, certPass)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert).Development()
	if production {
		client = apns2.NewClient(cert).Production()
	}

	return &APNSPusher{client: client, topic: topic, tokens: tokens}, nil
}

// Push looks up the recipient's device token and fires the notification.
// Failures are logged and dropped; push is best-effort on top of the stored
// notification.
func (p *APNSPusher) Push(ctx context.Context, coupleID, recipientNickname, message string) {
	deviceToken, err := p.tokens.Get(ctx, coupleID, recipientNickname)
	if err != nil {
		log.Error().Err(err).Str("couple_id", coupleID).Msg("Failed to load push token")
		return
	}
	if deviceToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     payload.NewPayload().Alert(message).Sound("default"),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		log.Error().Err(err).Str("couple_id", coupleID).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Str("couple_id", coupleID).
			Msg("APNs push rejected")
	}
}
