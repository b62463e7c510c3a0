package audit

import (
	"context"
	"database/sql"
)

// PGRepo appends events to the auth_audit_events table.
// The table is INSERT-only; no update or delete statements exist here.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO auth_audit_events
  (id, type, actor_user_id, actor_email, actor_role, ip_address, token_id, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		nullable(e.ActorUserID),
		nullable(e.ActorEmail),
		nullable(e.ActorRole),
		nullable(e.IPAddress),
		nullable(e.TokenID),
		e.Message,
		nullable(e.Metadata),
		e.CreatedAt,
	)
	return err
}

func (r *PGRepo) Recent(ctx context.Context, q Query) ([]Event, error) {
	q = q.normalized()
	const base = `
SELECT id, type, actor_user_id, actor_email, actor_role, ip_address, token_id, message, metadata, created_at
FROM auth_audit_events
`
	var (
		rows *sql.Rows
		err  error
	)
	if q.Type != "" {
		rows, err = r.db.QueryContext(ctx, base+"WHERE type = $1 ORDER BY created_at DESC LIMIT $2", string(q.Type), q.Limit)
	} else {
		rows, err = r.db.QueryContext(ctx, base+"ORDER BY created_at DESC LIMIT $1", q.Limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		var actorID, email, role, ip, tokenID, meta sql.NullString
		if err := rows.Scan(&e.ID, &typ, &actorID, &email, &role, &ip, &tokenID, &e.Message, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		e.ActorUserID, e.ActorEmail, e.ActorRole = actorID.String, email.String, role.String
		e.IPAddress, e.TokenID, e.Metadata = ip.String, tokenID.String, meta.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
