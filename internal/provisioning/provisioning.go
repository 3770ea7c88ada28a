// Package provisioning hands the credentials of admin-created accounts to
// whoever delivers them to the new user. No mail is sent: the log mode
// writes them to the operator log, the stream mode queues them on a Redis
// stream for the worker.
package provisioning

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"usermanagement/internal/config"
	"usermanagement/internal/service"
)

// TaskCredentials is the stream message type carrying new credentials.
const TaskCredentials = "credentials"

// LogProvisioner writes credentials to the operator log.
type LogProvisioner struct {
	log zerolog.Logger
}

func NewLogProvisioner(log zerolog.Logger) *LogProvisioner {
	return &LogProvisioner{log: log}
}

func (p *LogProvisioner) Deliver(_ context.Context, creds service.Credentials) error {
	p.log.Warn().
		Str("user_id", creds.UserID).
		Str("email", creds.Email).
		Str("passkey", creds.Passkey).
		Str("password", creds.Password).
		Msg("account provisioned, deliver credentials out of band")
	return nil
}

// StreamPublisher queues credentials for the worker. Only the passkey
// travels; the worker derives the password from it again.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: 10000}
}

func (p *StreamPublisher) Deliver(ctx context.Context, creds service.Credentials) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"type":    TaskCredentials,
			"userId":  creds.UserID,
			"name":    creds.Name,
			"email":   creds.Email,
			"passkey": creds.Passkey,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish credentials: %w", err)
	}
	return nil
}

// New picks the provisioner for cfg.Mode.
func New(cfg config.ProvisioningConfig, client *redis.Client, log zerolog.Logger) (service.Provisioner, error) {
	switch cfg.Mode {
	case config.ProvisioningLog:
		return NewLogProvisioner(log), nil
	case config.ProvisioningStream:
		return NewStreamPublisher(client, cfg.Stream), nil
	default:
		return nil, fmt.Errorf("unknown provisioning mode %q", cfg.Mode)
	}
}
