package store

import (
	"database/sql"
	"fmt"

	"github.com/screenquest/screenquest/internal/model"
)

type PushStore struct {
	db DBTX
}

func NewPushStore(db DBTX) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, member_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.MemberID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription registers a device for a member. Re-subscribing an
// existing endpoint updates the keys in place.
func (s *PushStore) CreateSubscription(memberID int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (member_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET member_id = excluded.member_id, p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key, device_name = excluded.device_name`,
		memberID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	return s.getByEndpoint(endpoint)
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return sub, nil
}

func (s *PushStore) GetByID(id int64) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) ListByMember(memberID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE member_id = ? ORDER BY created_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ListByRole returns subscriptions for every member holding the given role,
// used to fan notifications out to all parents.
func (s *PushStore) ListByRole(role model.Role) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.member_id, p.endpoint, p.p256dh_key, p.auth_key, p.device_name, p.created_at
		 FROM push_subscriptions p JOIN members m ON m.id = p.member_id
		 WHERE m.role = ? ORDER BY p.created_at DESC`,
		role,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions by role: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func collectSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription the push service reported as gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
