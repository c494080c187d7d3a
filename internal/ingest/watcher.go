package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
)

// renewalGrace is how close to expiry a push channel gets replaced.
const renewalGrace = 12 * time.Hour

// EnsureWatch registers a Drive push channel for the account, or renews the
// existing one when it is near expiry. The channel id, resource id and
// expiry are kept alongside the source watermark. A revoked credential
// surfaces meeting.ErrAuthRequired to the caller.
func (c *Coordinator) EnsureWatch(ctx context.Context, account, webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook url is required")
	}

	state, err := c.store.GetSourceState(ctx, account, meeting.SourceDrive)
	if err != nil {
		return err
	}

	if state.ChannelID != "" && state.ChannelExpiresAt != nil &&
		time.Until(*state.ChannelExpiresAt) > renewalGrace {
		return nil
	}

	svc, err := c.sources.DriveForAccount(ctx, account)
	if err != nil {
		return err
	}

	pageToken := state.Watermark
	if pageToken == "" {
		pageToken, err = svc.GetStartPageToken(ctx)
		if err != nil {
			return err
		}
	}

	// Stop a stale-but-alive channel so the account never has two.
	if state.ChannelID != "" && state.ResourceID != "" {
		if err := svc.StopWatch(ctx, state.ChannelID, state.ResourceID); err != nil &&
			!errors.Is(err, meeting.ErrNotFound) {
			c.logger.Warn("failed to stop expiring drive channel",
				logging.Account(account),
				logging.Err(err))
		}
	}

	ch, err := svc.Watch(ctx, webhookURL, pageToken)
	if err != nil {
		return err
	}

	state.Account = account
	state.SourceKind = meeting.SourceDrive
	state.Watermark = pageToken
	state.ChannelID = ch.ChannelID
	state.ResourceID = ch.ResourceID
	state.ChannelExpiresAt = &ch.Expiration
	if err := c.store.SaveSourceState(ctx, *state); err != nil {
		return fmt.Errorf("saving drive channel state: %w", err)
	}

	c.logger.Info("drive push channel registered",
		logging.Account(account),
		slog.Time("channel_expires", ch.Expiration))
	return nil
}

// StopWatches tears down all registered push channels, used on shutdown
// when the webhook endpoint is about to disappear.
func (c *Coordinator) StopWatches(ctx context.Context, accounts []string) {
	for _, account := range accounts {
		state, err := c.store.GetSourceState(ctx, account, meeting.SourceDrive)
		if err != nil || state.ChannelID == "" || state.ResourceID == "" {
			continue
		}
		svc, err := c.sources.DriveForAccount(ctx, account)
		if err != nil {
			continue
		}
		if err := svc.StopWatch(ctx, state.ChannelID, state.ResourceID); err != nil {
			c.logger.Warn("failed to stop drive channel",
				logging.Account(account),
				logging.Err(err))
			continue
		}
		state.ChannelID = ""
		state.ResourceID = ""
		state.ChannelExpiresAt = nil
		if err := c.store.SaveSourceState(ctx, *state); err != nil {
			c.logger.Warn("failed to clear drive channel state",
				logging.Account(account),
				logging.Err(err))
		}
	}
}
