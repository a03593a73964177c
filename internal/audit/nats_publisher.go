// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

//go:build nats

package audit

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/clinicguard/internal/config"
	"github.com/tomtom215/clinicguard/internal/logging"
)

// NewNATSPublisher connects a JetStream publisher for decision forwarding.
// The connection retries forever; a broker outage delays audit delivery
// but never blocks authorization, which only ever enqueues into the Sink.
func NewNATSPublisher(cfg *config.NATSConfig) (message.Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("audit nats url is required")
	}
	log := logging.WithComponent("audit-nats")

	conn := []natsgo.Option{
		natsgo.Name("clinicguard-audit"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("audit forwarding disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("audit forwarding reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: conn,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
		return nil, fmt.Errorf("audit nats publisher %s: %w", cfg.URL, err)
	}
	return pub, nil
}
