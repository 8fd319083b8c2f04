// Package nats publishes filter state changes through NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/draknorr/publisheriq-sub000/internal/notify"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStream is the subset of jetstream.JetStream used here.
type JetStream interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type natsConnection interface {
	Close()
}

// connect and newJetStream are swapped in tests.
var (
	connect = func(url string) (*nats.Conn, error) {
		return nats.Connect(url, nats.Name("filterctl"))
	}
	newJetStream = func(nc *nats.Conn) (JetStream, error) {
		return jetstream.New(nc)
	}
)

type publisher struct {
	js   JetStream
	nc   natsConnection
	opts notify.PublisherOptions
}

// Dial connects to url and returns a Publisher owning the connection.
func Dial(ctx context.Context, url string, opts notify.PublisherOptions) (notify.Publisher, error) {
	nc, err := connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	js, err := newJetStream(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream: %w", err)
	}
	pub, err := NewPublisher(ctx, js, opts)
	if err != nil {
		nc.Close()
		return nil, err
	}
	pub.(*publisher).nc = nc
	return pub, nil
}

// NewPublisher creates a Publisher on an existing JetStream context.
func NewPublisher(ctx context.Context, js JetStream, opts notify.PublisherOptions) (notify.Publisher, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}
	if opts.StreamName != "" {
		subjects := []string{opts.StreamName + ".>"}
		if opts.SubjectPrefix != "" && opts.SubjectPrefix != opts.StreamName {
			subjects = []string{opts.SubjectPrefix + ".>"}
		}
		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     opts.StreamName,
			Subjects: subjects,
			Storage:  jetstream.MemoryStorage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to ensure stream: %w", err)
		}
	}
	return &publisher{js: js, opts: opts}, nil
}

func (p *publisher) Publish(ctx context.Context, subject string, data []byte) error {
	start := time.Now()

	fullSubject := subject
	if p.opts.SubjectPrefix != "" {
		fullSubject = p.opts.SubjectPrefix + "." + subject
	}

	var publishOpts []jetstream.PublishOpt
	if p.opts.RetryAttempts > 0 {
		publishOpts = append(publishOpts, jetstream.WithRetryAttempts(p.opts.RetryAttempts))
	}

	_, err := p.js.Publish(ctx, fullSubject, data, publishOpts...)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", fullSubject, err)
	}
	return nil
}

func (p *publisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
