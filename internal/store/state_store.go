package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/teemow/meetingmate/internal/meeting"
)

// sourceStateRow mirrors the source_state table.
type sourceStateRow struct {
	Account          string       `db:"account"`
	SourceKind       string       `db:"source_kind"`
	Watermark        string       `db:"watermark"`
	ChannelID        string       `db:"channel_id"`
	ResourceID       string       `db:"resource_id"`
	ChannelExpiresAt sql.NullTime `db:"channel_expires_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

// GetSourceState returns the watermark state for (account, kind). A source
// that has never been scanned returns a zero-valued state.
func (s *SQLiteStore) GetSourceState(ctx context.Context, account string, kind meeting.SourceKind) (*SourceState, error) {
	var row sourceStateRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM source_state WHERE account = ? AND source_kind = ?",
		account, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return &SourceState{Account: account, SourceKind: kind}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting source state: %w", err)
	}

	st := &SourceState{
		Account:    row.Account,
		SourceKind: meeting.SourceKind(row.SourceKind),
		Watermark:  row.Watermark,
		ChannelID:  row.ChannelID,
		ResourceID: row.ResourceID,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.ChannelExpiresAt.Valid {
		t := row.ChannelExpiresAt.Time
		st.ChannelExpiresAt = &t
	}
	return st, nil
}

// SaveSourceState upserts the watermark state for (account, kind).
func (s *SQLiteStore) SaveSourceState(ctx context.Context, st SourceState) error {
	if !st.SourceKind.Valid() {
		return fmt.Errorf("invalid source kind %q", st.SourceKind)
	}
	var expires any
	if st.ChannelExpiresAt != nil {
		expires = *st.ChannelExpiresAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_state (
			account, source_kind, watermark, channel_id, resource_id,
			channel_expires_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account, source_kind) DO UPDATE SET
			watermark = excluded.watermark,
			channel_id = excluded.channel_id,
			resource_id = excluded.resource_id,
			channel_expires_at = excluded.channel_expires_at,
			updated_at = excluded.updated_at`,
		st.Account, string(st.SourceKind), st.Watermark, st.ChannelID,
		st.ResourceID, expires, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving source state: %w", err)
	}
	return nil
}
