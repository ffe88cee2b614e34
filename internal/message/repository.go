package message

import (
	"context"
	"database/sql"
)

const messageCols = `id, seq, session_id, sender_id, receiver_id, body, voice_url, type, duration_seconds, read, created_at`

// insertMessage stores the message and fills in its assigned seq, so the
// record callers broadcast matches what a history read will return.
func insertMessage(ctx context.Context, db *sql.DB, m *Message) error {
	const q = `
INSERT INTO messages (
  id, session_id, sender_id, receiver_id, body, voice_url, type, duration_seconds, read, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING seq
`
	return db.QueryRowContext(ctx, q,
		m.ID, m.SessionID, m.SenderID, m.ReceiverID,
		m.Body, m.VoiceURL, m.Type, m.DurationSeconds, m.Read, m.CreatedAt,
	).Scan(&m.Seq)
}

// listBySession returns messages oldest first by insert ordinal, so the
// history order is the persistence order even when timestamps tie.
func listBySession(ctx context.Context, db *sql.DB, sessionID string) ([]Message, error) {
	const q = `SELECT ` + messageCols + ` FROM messages WHERE session_id = $1 ORDER BY seq ASC`

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.Seq, &m.SessionID, &m.SenderID, &m.ReceiverID,
			&m.Body, &m.VoiceURL, &m.Type, &m.DurationSeconds, &m.Read, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func deleteBySession(ctx context.Context, db *sql.DB, sessionID string) (int64, error) {
	const q = `DELETE FROM messages WHERE session_id = $1`
	res, err := db.ExecContext(ctx, q, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func markRead(ctx context.Context, db *sql.DB, sessionID, readerID string) error {
	// A reader marks everything addressed to them in the session as read.
	const q = `UPDATE messages SET read = TRUE WHERE session_id = $1 AND receiver_id = $2 AND read = FALSE`
	_, err := db.ExecContext(ctx, q, sessionID, readerID)
	return err
}
