package service

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/auto-insurance/internal/access"
	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/queue"
)

// DefaultAuditLimit caps ListAuditLogs when no limit is given.
const DefaultAuditLimit = 50

// tariffKeys is the order in which UpdateTariffSettings applies keys.
var tariffKeys = []string{
	model.SettingImpactSpeedThreshold,
	model.SettingCascoCoeff,
	model.SettingOscpvCoeff,
}

// AdminService implements user governance and settings updates. Every
// operation requires an active Admin actor and every mutation is audited.
type AdminService struct {
	users    UserStore
	settings SettingsStore
	audit    AuditStore
	events   EventPublisher
	now      func() time.Time
	log      *log.Logger
}

// NewAdminService wires the governance engine. events may be nil.
func NewAdminService(users UserStore, settings SettingsStore, audit AuditStore, events EventPublisher) *AdminService {
	return &AdminService{
		users:    users,
		settings: settings,
		audit:    audit,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.New("admin"),
	}
}

func (s *AdminService) requireAdmin(ctx context.Context, actorID int64) error {
	actor, err := findUser(ctx, s.users, actorID)
	if err != nil {
		return err
	}
	return access.Admin(actor).Err()
}

func (s *AdminService) target(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "target user not found", "load user")
	}
	return u, nil
}

// ChangeUserRole sets the role of targetID.
func (s *AdminService) ChangeUserRole(ctx context.Context, targetID, actorID int64, newRole string) (*model.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	role := model.Role(newRole)
	if !role.Valid() {
		return nil, apperr.InvalidInput("invalid role")
	}
	u, err := s.target(ctx, targetID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateRole(ctx, targetID, role, now); err != nil {
		return nil, notFoundOr(err, "target user not found", "update role")
	}
	u.Role = role
	u.UpdatedAt = now

	if err := s.record(ctx, model.AuditChangeRole, actorID, &targetID, map[string]any{"newRole": newRole}); err != nil {
		return nil, err
	}
	return u, nil
}

// BlockUser deactivates targetID. Blocking an inactive user is a no-op.
func (s *AdminService) BlockUser(ctx context.Context, targetID, actorID int64) (*model.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := access.SelfBlock(actorID, targetID).Err(); err != nil {
		return nil, err
	}
	return s.setActive(ctx, targetID, actorID, false, model.AuditBlockUser)
}

// UnblockUser reactivates targetID. Unblocking an active user is a no-op.
func (s *AdminService) UnblockUser(ctx context.Context, targetID, actorID int64) (*model.User, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.setActive(ctx, targetID, actorID, true, model.AuditUnblockUser)
}

func (s *AdminService) setActive(ctx context.Context, targetID, actorID int64, active bool, action model.AuditAction) (*model.User, error) {
	u, err := s.target(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if u.IsActive == active {
		return u, nil
	}

	now := s.now()
	if err := s.users.SetActive(ctx, targetID, active, now); err != nil {
		return nil, notFoundOr(err, "target user not found", "update user")
	}
	u.IsActive = active
	u.UpdatedAt = now

	if err := s.record(ctx, action, actorID, &targetID, map[string]any{}); err != nil {
		return nil, err
	}
	return u, nil
}

// ListAuditLogs returns the most recent audit entries first. A limit of
// zero or less means DefaultAuditLimit.
func (s *AdminService) ListAuditLogs(ctx context.Context, actorID int64, limit int) ([]model.AuditLogEntry, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	entries, err := s.audit.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list audit logs", err)
	}
	return entries, nil
}

// UpdateTariffSettings upserts the tariff keys present in payload. Every
// present key is validated before anything is written; absent keys are
// left untouched. One UPDATE_TARIFFS entry lists the keys written.
func (s *AdminService) UpdateTariffSettings(ctx context.Context, actorID int64, payload map[string]any) ([]model.Setting, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	type change struct {
		key   string
		value float64
	}
	var changes []change
	for _, key := range tariffKeys {
		raw, present := payload[key]
		if !present || raw == nil {
			continue
		}
		v, ok := coerceNumber(raw)
		if !ok {
			return nil, apperr.InvalidInput("invalid number for " + key)
		}
		changes = append(changes, change{key, v})
	}

	now := s.now()
	updated := make([]model.Setting, 0, len(changes))
	keys := make([]string, 0, len(changes))
	for _, ch := range changes {
		st, err := s.settings.UpsertNumber(ctx, ch.key, ch.value, now)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "update setting "+ch.key, err)
		}
		updated = append(updated, *st)
		keys = append(keys, ch.key)
	}

	if err := s.record(ctx, model.AuditUpdateTariffs, actorID, nil, map[string]any{"updatedKeys": keys}); err != nil {
		return nil, err
	}
	return updated, nil
}

// record appends an audit entry and mirrors it to the broker.
func (s *AdminService) record(ctx context.Context, action model.AuditAction, actorID int64, targetID *int64, details map[string]any) error {
	entry := &model.AuditLogEntry{
		Action:       action,
		ActorUserID:  actorID,
		TargetUserID: targetID,
		Details:      details,
		CreatedAt:    s.now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return apperr.Wrap(apperr.KindInternal, "write audit log", err)
	}
	if s.events == nil {
		return nil
	}
	ev := queue.AuditEvent{
		AuditID:      entry.ID,
		Action:       string(entry.Action),
		ActorUserID:  entry.ActorUserID,
		TargetUserID: entry.TargetUserID,
		Details:      entry.Details,
		CreatedAt:    entry.CreatedAt,
	}
	if err := s.events.PublishAuditEvent(ctx, ev); err != nil {
		s.log.Warnf("publish audit %s: %v", action, err)
	}
	return nil
}
