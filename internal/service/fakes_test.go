package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/queue"
	"github.com/iliyamo/auto-insurance/internal/repository"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

type memClaims struct {
	mu   sync.Mutex
	rows map[int64]model.Claim
}

func newMemClaims() *memClaims { return &memClaims{rows: map[int64]model.Claim{}} }

func (m *memClaims) FindByID(_ context.Context, id int64) (*model.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memClaims) Create(_ context.Context, c *model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ClaimID]; ok {
		return repository.ErrDuplicate
	}
	m.rows[c.ClaimID] = *c
	return nil
}

func (m *memClaims) UpdateState(_ context.Context, c *model.Claim, expected model.ClaimStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ClaimID]
	if !ok || cur.Status != expected {
		return repository.ErrStaleWrite
	}
	m.rows[c.ClaimID] = *c
	return nil
}

type memPolicies struct {
	rows map[int64]model.Policy
}

func newMemPolicies(ps ...model.Policy) *memPolicies {
	m := &memPolicies{rows: map[int64]model.Policy{}}
	for _, p := range ps {
		m.rows[p.PolicyID] = p
	}
	return m
}

func (m *memPolicies) FindByID(_ context.Context, id int64) (*model.Policy, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memPolicies) Create(_ context.Context, p *model.Policy) error {
	if _, ok := m.rows[p.PolicyID]; ok {
		return repository.ErrDuplicate
	}
	m.rows[p.PolicyID] = *p
	return nil
}

func (m *memPolicies) Activate(_ context.Context, p *model.Policy, expected model.PolicyStatus) error {
	cur, ok := m.rows[p.PolicyID]
	if !ok || cur.Status != expected {
		return repository.ErrStaleWrite
	}
	m.rows[p.PolicyID] = *p
	return nil
}

type memPayments struct {
	rows []model.Payment
}

func (m *memPayments) Create(_ context.Context, p *model.Payment) error {
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memPayments) FindPaidByPolicy(_ context.Context, policyID int64) (*model.Payment, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].PolicyID == policyID && m.rows[i].Status == model.PaymentPaid {
			p := m.rows[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memTelemetry struct {
	rows []model.TelemetryEvent
}

func (m *memTelemetry) Create(_ context.Context, e *model.TelemetryEvent) error {
	for _, r := range m.rows {
		if r.EventID == e.EventID {
			return repository.ErrDuplicate
		}
	}
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memTelemetry) ListByVehicle(_ context.Context, vehicleID int64, limit int) ([]model.TelemetryEvent, error) {
	var out []model.TelemetryEvent
	for _, r := range m.rows {
		if r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memUsers struct {
	rows map[int64]model.User
}

func newMemUsers(us ...model.User) *memUsers {
	m := &memUsers{rows: map[int64]model.User{}}
	for _, u := range us {
		m.rows[u.UserID] = u
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	for _, r := range m.rows {
		if r.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.rows[u.UserID] = *u
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id int64, role model.Role, at time.Time) error {
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role, u.UpdatedAt = role, at
	m.rows[id] = u
	return nil
}

func (m *memUsers) SetActive(_ context.Context, id int64, active bool, at time.Time) error {
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive, u.UpdatedAt = active, at
	m.rows[id] = u
	return nil
}

type memSettings struct {
	rows   map[string]model.Setting
	failOn string
}

func newMemSettings() *memSettings { return &memSettings{rows: map[string]model.Setting{}} }

func (m *memSettings) set(key string, v float64) {
	m.rows[key] = model.Setting{Key: key, ValueNumber: ptr(v)}
}

func (m *memSettings) Get(_ context.Context, key string) (*model.Setting, error) {
	s, ok := m.rows[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memSettings) UpsertNumber(_ context.Context, key string, v float64, at time.Time) (*model.Setting, error) {
	if key == m.failOn {
		return nil, errors.New("settings store down")
	}
	s := model.Setting{Key: key, ValueNumber: ptr(v), UpdatedAt: at}
	m.rows[key] = s
	return &s, nil
}

type memAudit struct {
	rows []model.AuditLogEntry
}

func (m *memAudit) Append(_ context.Context, e *model.AuditLogEntry) error {
	e.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memAudit) ListRecent(_ context.Context, limit int) ([]model.AuditLogEntry, error) {
	var out []model.AuditLogEntry
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

// seqIDs numbers every sequence independently from 1.
type seqIDs struct {
	mu   sync.Mutex
	next map[string]int64
}

func newSeqIDs() *seqIDs { return &seqIDs{next: map[string]int64{}} }

func (s *seqIDs) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[name]++
	return s.next[name], nil
}

type recordingPublisher struct {
	claims []queue.ClaimEvent
	audits []queue.AuditEvent
	err    error
}

func (p *recordingPublisher) PublishClaimEvent(_ context.Context, ev queue.ClaimEvent) error {
	p.claims = append(p.claims, ev)
	return p.err
}

func (p *recordingPublisher) PublishAuditEvent(_ context.Context, ev queue.AuditEvent) error {
	p.audits = append(p.audits, ev)
	return p.err
}
