package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auto-insurance/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), ErrDuplicate)

	other := &mysql.MySQLError{Number: 1452}
	assert.Same(t, other, translate(other))
	assert.NoError(t, translate(nil))
}

func TestSequenceRepo_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("first allocation reads the seeded value", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q("INSERT INTO id_sequences (name, value)")).
			WithArgs(SeqClaims).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("SELECT value FROM id_sequences WHERE name = ?")).
			WithArgs(SeqClaims).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(8)))

		id, err := NewSequenceRepo(db).Next(ctx, SeqClaims)
		require.NoError(t, err)
		assert.Equal(t, int64(8), id)
	})

	t.Run("increment returns LAST_INSERT_ID", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q("MAX(policy_id), 0) + 1 FROM policies ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(GREATEST(value + 1, VALUES(value)))")).
			WithArgs(SeqPolicies).
			WillReturnResult(sqlmock.NewResult(42, 2))

		id, err := NewSequenceRepo(db).Next(ctx, SeqPolicies)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("unknown sequence", func(t *testing.T) {
		db, _ := newMock(t)
		_, err := NewSequenceRepo(db).Next(ctx, "vehicles")
		assert.Error(t, err)
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		db, mock := newMock(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(q("INSERT INTO id_sequences")).WillReturnError(boom)
		_, err := NewSequenceRepo(db).Next(ctx, SeqUsers)
		assert.ErrorIs(t, err, boom)
	})
}

var claimCols = []string{"claim_id", "policy_id", "reported_by_client_id", "handler_user_id", "event_time",
	"location_lat", "location_lng", "description", "status", "estimated_damage", "approved_payout",
	"created_at", "updated_at"}

func TestClaimRepo(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("FindByID maps nullable columns", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q("FROM claims WHERE claim_id = ?")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(claimCols).AddRow(
				int64(3), int64(1), int64(7), nil, at,
				nil, nil, "rear bumper", "Created", 1200.5, nil,
				at, at))

		c, err := NewClaimRepo(db).FindByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, model.ClaimCreated, c.Status)
		assert.Nil(t, c.HandlerUserID)
		assert.Nil(t, c.ApprovedPayout)
		require.NotNil(t, c.EstimatedDamage)
		assert.Equal(t, 1200.5, *c.EstimatedDamage)
	})

	t.Run("FindByID not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q("FROM claims WHERE claim_id = ?")).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(claimCols))

		_, err := NewClaimRepo(db).FindByID(ctx, 9)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Create duplicate", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q("INSERT INTO claims")).
			WillReturnError(&mysql.MySQLError{Number: 1062})

		err := NewClaimRepo(db).Create(ctx, &model.Claim{ClaimID: 1, Status: model.ClaimCreated})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("UpdateState is guarded by the expected status", func(t *testing.T) {
		db, mock := newMock(t)
		handler := int64(5)
		c := &model.Claim{ClaimID: 3, HandlerUserID: &handler, Status: model.ClaimInReview, UpdatedAt: at}

		mock.ExpectExec(q("UPDATE claims SET handler_user_id = ?, status = ?, approved_payout = ?, updated_at = ? WHERE claim_id = ? AND status = ?")).
			WithArgs(int64(5), "InReview", nil, at, int64(3), "Created").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("UPDATE claims SET")).
			WithArgs(int64(5), "InReview", nil, at, int64(3), "Created").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewClaimRepo(db)
		require.NoError(t, repo.UpdateState(ctx, c, model.ClaimCreated))
		assert.ErrorIs(t, repo.UpdateState(ctx, c, model.ClaimCreated), ErrStaleWrite)
	})
}

func TestPolicyRepo_Activate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	p := &model.Policy{PolicyID: 4, Status: model.PolicyActive, StartDate: at, UpdatedAt: at}

	mock.ExpectExec(q("UPDATE policies SET status = ?, start_date = ?, updated_at = ? WHERE policy_id = ? AND status = ?")).
		WithArgs("Active", at, at, int64(4), "Draft").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewPolicyRepo(db).Activate(ctx, p, model.PolicyDraft), ErrStaleWrite)
}

func TestPaymentRepo_FindPaidByPolicy(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM payments WHERE policy_id = ? AND status = ?")).
		WithArgs(int64(4), "Paid").
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "policy_id", "amount", "currency", "payment_date",
			"payment_method", "status", "created_at"}))

	_, err := NewPaymentRepo(db).FindPaidByPolicy(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTelemetryRepo_ListByVehicle(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("FROM telemetry_events WHERE vehicle_id = ?")).
		WithArgs(int64(11), 2).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "vehicle_id", "ts", "speed", "engine_rpm",
			"acceleration", "braking_flag", "impact_flag", "severity", "latitude", "longitude"}).
			AddRow(int64(2), int64(11), ts, 72.0, nil, nil, true, false, "warning", nil, nil).
			AddRow(int64(1), int64(11), ts.Add(-time.Minute), nil, nil, nil, nil, true, "critical", 50.45, 30.52))

	events, err := NewTelemetryRepo(db).ListByVehicle(ctx, 11, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, model.SeverityWarning, events[0].Severity)
	require.NotNil(t, events[0].Speed)
	assert.Equal(t, 72.0, *events[0].Speed)
	require.NotNil(t, events[0].BrakingFlag)
	assert.True(t, *events[0].BrakingFlag)

	assert.Nil(t, events[1].Speed)
	assert.Nil(t, events[1].BrakingFlag)
	assert.True(t, events[1].ImpactFlag)
	require.NotNil(t, events[1].Latitude)
	assert.Equal(t, 50.45, *events[1].Latitude)
}

func TestUserRepo_UpdatesRequireRow(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(q("UPDATE users SET is_active=?, updated_at=? WHERE user_id=?")).
		WithArgs(false, at, int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE users SET role=?, updated_at=? WHERE user_id=?")).
		WithArgs("Agent", at, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	require.NoError(t, repo.SetActive(ctx, 20, false, at))
	assert.ErrorIs(t, repo.UpdateRole(ctx, 404, model.RoleAgent, at), ErrNotFound)
}

func TestUserRepo_CreateNormalisesEmail(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WithArgs(int64(1), "Driver", "Olena K", "olena@example.com", "hash", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{UserID: 1, Role: model.RoleDriver, FullName: "Olena K", Email: " Olena@Example.com", PasswordHash: "hash", IsActive: true}
	require.NoError(t, NewUserRepo(db).Create(ctx, u))
	assert.Equal(t, "olena@example.com", u.Email)
}

func TestAuditRepo(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("Append stores JSON details and assigns the id", func(t *testing.T) {
		db, mock := newMock(t)
		target := int64(20)
		mock.ExpectExec(q("INSERT INTO audit_logs (action, actor_user_id, target_user_id, details, created_at)")).
			WithArgs("CHANGE_ROLE", int64(1), int64(20), []byte(`{"newRole":"Agent"}`), at).
			WillReturnResult(sqlmock.NewResult(17, 1))

		e := &model.AuditLogEntry{Action: model.AuditChangeRole, ActorUserID: 1, TargetUserID: &target,
			Details: map[string]any{"newRole": "Agent"}, CreatedAt: at}
		require.NoError(t, NewAuditRepo(db).Append(ctx, e))
		assert.Equal(t, int64(17), e.ID)
	})

	t.Run("ListRecent decodes details", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q("FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?")).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "action", "actor_user_id", "target_user_id", "details", "created_at"}).
				AddRow(int64(2), "UPDATE_TARIFFS", int64(1), nil, []byte(`{"updatedKeys":["cascoCoeff"]}`), at).
				AddRow(int64(1), "BLOCK_USER", int64(1), int64(20), []byte(`{}`), at))

		entries, err := NewAuditRepo(db).ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, model.AuditUpdateTariffs, entries[0].Action)
		assert.Nil(t, entries[0].TargetUserID)
		assert.Equal(t, []any{"cascoCoeff"}, entries[0].Details["updatedKeys"])
		require.NotNil(t, entries[1].TargetUserID)
		assert.Equal(t, int64(20), *entries[1].TargetUserID)
		assert.Empty(t, entries[1].Details)
	})
}
