package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitCrewAPI/internal/types/notification"
)

// PushProvider is what the notification service needs from FCM;
// injected so tests can run without firebase credentials.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

// NotificationService fans group events out to members' devices. Push
// delivery is best effort: failures are logged and never fail the
// request that triggered them.
type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.pushProvider = p
}

// RegisterDevice stores or refreshes an FCM device token for the
// caller.
func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3
	`
	if _, err := s.db.Exec(ctx, query, userID, req.Token, req.Platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// NotifyChallengePosted pushes to every participant except the host
// who posted.
func (s *NotificationService) NotifyChallengePosted(ctx context.Context, groupID, hostID uuid.UUID) {
	groupName, err := s.groupName(ctx, groupID)
	if err != nil {
		log.Printf("NotifyChallengePosted: %v", err)
		return
	}

	query := `
	SELECT m.user_id FROM group_memberships m
	WHERE m.group_id = $1 AND m.mode = 'participant' AND m.user_id != $2
	`
	recipients, err := s.userIDs(ctx, query, groupID, hostID)
	if err != nil {
		log.Printf("NotifyChallengePosted: %v", err)
		return
	}

	s.push(ctx, recipients,
		"This week's challenge is up",
		fmt.Sprintf("The host posted new targets in %s", groupName),
		map[string]string{"type": string(notification.NotificationChallengePosted), "group_id": groupID.String()},
	)
}

// NotifyHostAssigned tells a member they are hosting.
func (s *NotificationService) NotifyHostAssigned(ctx context.Context, hostID, groupID uuid.UUID) {
	groupName, err := s.groupName(ctx, groupID)
	if err != nil {
		log.Printf("NotifyHostAssigned: %v", err)
		return
	}

	s.push(ctx, []uuid.UUID{hostID},
		"You're hosting this week",
		fmt.Sprintf("Set the challenge for %s", groupName),
		map[string]string{"type": string(notification.NotificationHostAssigned), "group_id": groupID.String()},
	)
}

// NotifyPunishmentAssigned tells each assignee about their penalty.
func (s *NotificationService) NotifyPunishmentAssigned(ctx context.Context, assignees []uuid.UUID, punishmentName string) {
	s.push(ctx, assignees,
		"You've been assigned a punishment",
		punishmentName,
		map[string]string{"type": string(notification.NotificationPunishmentAssigned)},
	)
}

func (s *NotificationService) push(ctx context.Context, userIDs []uuid.UUID, title, body string, data map[string]string) {
	if s.pushProvider == nil || len(userIDs) == 0 {
		return
	}

	tokens, err := s.deviceTokens(ctx, userIDs)
	if err != nil {
		log.Printf("push: failed to load device tokens: %v", err)
		return
	}
	if err := s.pushProvider.SendPush(ctx, tokens, title, body, data); err != nil {
		log.Printf("push: %v", err)
	}
}

func (s *NotificationService) deviceTokens(ctx context.Context, userIDs []uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT token, platform FROM device_tokens WHERE user_id = ANY($1)`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []notification.DeviceToken{}
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) userIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *NotificationService) groupName(ctx context.Context, groupID uuid.UUID) (string, error) {
	var name string
	if err := s.db.QueryRow(ctx, `SELECT name FROM groups WHERE id = $1`, groupID).Scan(&name); err != nil {
		return "", fmt.Errorf("failed to get group name: %w", err)
	}
	return name, nil
}
