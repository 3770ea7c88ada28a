package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"usermanagement/internal/provisioning"
	"usermanagement/internal/security"
	"usermanagement/internal/service"
)

type TaskPayload struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Passkey string `json:"passkey"`
}

// Processor handles messages from the provisioning stream.
type Processor struct {
	deliver service.Provisioner
	logger  zerolog.Logger
}

func NewProcessor(deliver service.Provisioner, logger zerolog.Logger) *Processor {
	return &Processor{
		deliver: deliver,
		logger:  logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case provisioning.TaskCredentials:
		return p.handleCredentials(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleCredentials(ctx context.Context, payload TaskPayload) error {
	if payload.UserID == "" || payload.Passkey == "" {
		return errors.New("credentials task without user id or passkey")
	}
	return p.deliver.Deliver(ctx, service.Credentials{
		UserID:   payload.UserID,
		Name:     payload.Name,
		Email:    payload.Email,
		Passkey:  payload.Passkey,
		Password: security.DerivePassword(payload.Passkey),
	})
}
