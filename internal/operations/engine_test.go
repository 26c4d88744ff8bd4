package operations

import (
	"context"
	"testing"
	"time"

	"identity_service/internal/lib/logger/handlers/slogdiscard"
	"identity_service/internal/models"
	"identity_service/internal/session"
	redisstore "identity_service/internal/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newEngine(db *fakeDB, typ models.OperationType, policy Policy) *Engine {
	return NewEngine(slogdiscard.NewDiscardLogger(), typ, time.Hour, policy, db.deps())
}

func TestEngine_CreateSupersedesPrevious(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 42, Email: "u42@example.com"})
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))
	ctx := context.Background()

	first, err := e.Create(ctx, nil, CreateRequest{Subject: ForID(42)})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := e.Create(ctx, nil, CreateRequest{Subject: ForID(42)})
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.NotEqual(t, first.Token, second.Token)

	rows := db.rowsFor(42, models.OperationSignUp)
	require.Len(t, rows, 1)
	assert.Equal(t, second.Token, rows[0].Token)

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: first.Token})
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.False(t, db.user(42).EmailVerified)

	applied, err = e.Apply(ctx, nil, ApplyRequest{Token: second.Token})
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, int64(42), applied.UserID)
	assert.True(t, db.user(42).EmailVerified)
	assert.Empty(t, db.rowsFor(42, models.OperationSignUp))
}

func TestEngine_CreateSetsTTL(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 1, Email: "a@example.com"})
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	created, err := e.Create(context.Background(), nil, CreateRequest{Subject: ForEmail("A@example.com")})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, now.Add(time.Hour), created.TTL)
	assert.Equal(t, models.OperationSignUp, created.Type)
	assert.Equal(t, 1, db.lastTx().commits)
}

func TestEngine_ApplyExpired(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 5, Email: "e@example.com"})
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))
	ctx := context.Background()

	created, err := e.Create(ctx, nil, CreateRequest{Subject: ForID(5)})
	require.NoError(t, err)

	e.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	require.NoError(t, err)
	assert.Nil(t, applied)

	assert.False(t, db.user(5).EmailVerified)
	assert.Len(t, db.rowsFor(5, models.OperationSignUp), 1)
	assert.Equal(t, 1, db.lastTx().rollbacks)
}

func TestEngine_ApplyWrongType(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 6, Email: "w@example.com", EmailVerified: false})
	signUp := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))
	recovery := newEngine(db, models.OperationPasswordRecovery, NewPasswordRecoveryPolicy(db, db))
	ctx := context.Background()

	created, err := signUp.Create(ctx, nil, CreateRequest{Subject: ForID(6)})
	require.NoError(t, err)

	applied, err := recovery.Apply(ctx, nil, ApplyRequest{Token: created.Token, Password: "N3w-pass!"})
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.Empty(t, db.dropped)
}

func TestEngine_ApplyUnknownToken(t *testing.T) {
	db := newFakeDB()
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))

	applied, err := e.Apply(context.Background(), nil, ApplyRequest{Token: "nope"})
	require.NoError(t, err)
	assert.Nil(t, applied)
}

func TestEngine_ApplyTwice(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 8, Email: "t@example.com"})
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))
	ctx := context.Background()

	created, err := e.Create(ctx, nil, CreateRequest{Subject: ForID(8)})
	require.NoError(t, err)

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	require.NoError(t, err)
	require.NotNil(t, applied)

	applied, err = e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	require.NoError(t, err)
	assert.Nil(t, applied)
}

func TestEngine_SilentDecline(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
	}{
		{name: "verified user", subject: ForID(1)},
		{name: "missing user by id", subject: ForID(404)},
		{name: "missing user by email", subject: ForEmail("ghost@example.com")},
		{name: "empty subject", subject: Subject{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newFakeDB()
			db.addUser(models.User{ID: 1, Email: "v@example.com", EmailVerified: true})
			e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))

			created, err := e.Create(context.Background(), nil, CreateRequest{Subject: tt.subject})
			require.NoError(t, err)
			assert.Nil(t, created)
			assert.Empty(t, db.ops)

			tx := db.lastTx()
			require.NotNil(t, tx)
			assert.Equal(t, 0, tx.commits)
			assert.Equal(t, 1, tx.rollbacks)
		})
	}
}

func TestEngine_BorrowedTxIsNeverFinalized(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 3, Email: "b@example.com"})
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))
	ctx := context.Background()

	tx := &fakeTx{}

	created, err := e.Create(ctx, tx, CreateRequest{Subject: ForID(3)})
	require.NoError(t, err)
	require.NotNil(t, created)

	applied, err := e.Apply(ctx, tx, ApplyRequest{Token: created.Token})
	require.NoError(t, err)
	require.NotNil(t, applied)

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
	assert.Empty(t, db.txs)
}

func TestEngine_OwnedCreateSwallowsInfraError(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 3, Email: "b@example.com"})
	db.saveErr = errBroken
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))

	created, err := e.Create(context.Background(), nil, CreateRequest{Subject: ForID(3)})
	assert.NoError(t, err)
	assert.Nil(t, created)

	tx := db.lastTx()
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestEngine_BorrowedCreateRethrowsInfraError(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 3, Email: "b@example.com"})
	db.saveErr = errBroken
	e := newEngine(db, models.OperationSignUp, NewSignUpPolicy(db))

	tx := &fakeTx{}

	created, err := e.Create(context.Background(), tx, CreateRequest{Subject: ForID(3)})
	assert.ErrorIs(t, err, errBroken)
	assert.Nil(t, created)
	assert.Equal(t, 0, tx.rollbacks)
	assert.Equal(t, 0, tx.commits)
}

func TestEngine_PasswordRecoveryDropsAllSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	sessions := session.New(slogdiscard.NewDiscardLogger(), store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := sessions.Create(ctx, models.SessionPayload{UserID: 11}, time.Hour)
		require.NoError(t, err)
	}
	otherID, err := sessions.Create(ctx, models.SessionPayload{UserID: 110}, time.Hour)
	require.NoError(t, err)

	db := newFakeDB()
	db.addUser(models.User{ID: 11, Email: "r@example.com", EmailVerified: true, HasPassword: true})
	e := newEngine(db, models.OperationPasswordRecovery, NewPasswordRecoveryPolicy(db, sessions))

	created, err := e.Create(ctx, nil, CreateRequest{Subject: ForEmail("r@example.com")})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Nil(t, created.Data)

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token, Password: "Fr3sh-pass"})
	require.NoError(t, err)
	require.NotNil(t, applied)

	assert.Equal(t, []string{otherID}, mr.Keys())
	assert.NoError(t, bcrypt.CompareHashAndPassword(db.user(11).PassHash, []byte("Fr3sh-pass")))
}

func TestEngine_PasswordRecoveryRequiresVerifiedUser(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 12, Email: "nv@example.com"})
	e := newEngine(db, models.OperationPasswordRecovery, NewPasswordRecoveryPolicy(db, db))

	created, err := e.Create(context.Background(), nil, CreateRequest{Subject: ForID(12)})
	require.NoError(t, err)
	assert.Nil(t, created)
}

func TestEngine_PasswordRecoveryApplyWithoutPassword(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 13, Email: "p@example.com", EmailVerified: true})
	e := newEngine(db, models.OperationPasswordRecovery, NewPasswordRecoveryPolicy(db, db))
	ctx := context.Background()

	created, err := e.Create(ctx, nil, CreateRequest{Subject: ForID(13)})
	require.NoError(t, err)

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	assert.ErrorIs(t, err, ErrMissingPassword)
	assert.Nil(t, applied)
	assert.Equal(t, 1, db.lastTx().rollbacks)
}

func TestEngine_PasswordChangeStoresHash(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 20, Email: "pc@example.com", EmailVerified: true, HasPassword: true})
	e := newEngine(db, models.OperationPasswordChange, NewPasswordChangePolicy(db, db))
	ctx := context.Background()

	created, err := e.Create(ctx, nil, CreateRequest{
		Subject: ForID(20),
		Data:    models.OperationData{Password: "N3w-secret"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.NotNil(t, created.Data)
	assert.NotEqual(t, "N3w-secret", created.Data.Password)

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	require.NoError(t, err)
	require.NotNil(t, applied)

	assert.NoError(t, bcrypt.CompareHashAndPassword(db.user(20).PassHash, []byte("N3w-secret")))
	assert.Equal(t, []int64{20}, db.dropped)
}

func TestEngine_EmailChangeCollisionOnCreate(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 1, Email: "a@example.com", HasPassword: true})
	db.addUser(models.User{ID: 2, Email: "b@example.com", HasPassword: true})
	e := newEngine(db, models.OperationEmailChange, NewEmailChangePolicy(db, db))

	created, err := e.Create(context.Background(), nil, CreateRequest{
		Subject: ForID(1),
		Data:    models.OperationData{Email: "B@example.com"},
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Nil(t, created)
	assert.Empty(t, db.ops)
	assert.Equal(t, 1, db.lastTx().rollbacks)
}

func TestEngine_EmailChangeCollisionOnApply(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 1, Email: "a@example.com", HasPassword: true})
	e := newEngine(db, models.OperationEmailChange, NewEmailChangePolicy(db, db))
	ctx := context.Background()

	created, err := e.Create(ctx, nil, CreateRequest{
		Subject: ForID(1),
		Data:    models.OperationData{Email: "C@Example.com"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "c@example.com", created.Data.Email)

	db.addUser(models.User{ID: 3, Email: "c@example.com", HasPassword: true})

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Nil(t, applied)
	assert.Equal(t, "a@example.com", db.user(1).Email)
	assert.Empty(t, db.dropped)
	assert.Equal(t, 1, db.lastTx().rollbacks)
}

func TestEngine_EmailChange(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 1, Email: "a@example.com", HasPassword: true})
	e := newEngine(db, models.OperationEmailChange, NewEmailChangePolicy(db, db))
	ctx := context.Background()

	created, err := e.Create(ctx, nil, CreateRequest{
		Subject: ForID(1),
		Data:    models.OperationData{Email: "new@example.com"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	applied, err := e.Apply(ctx, nil, ApplyRequest{Token: created.Token})
	require.NoError(t, err)
	require.NotNil(t, applied)

	assert.Equal(t, "new@example.com", db.user(1).Email)
	assert.Equal(t, []int64{1}, db.dropped)
}

func TestEngine_EmailChangeRequiresPassword(t *testing.T) {
	db := newFakeDB()
	db.addUser(models.User{ID: 1, Email: "social@example.com"})
	e := newEngine(db, models.OperationEmailChange, NewEmailChangePolicy(db, db))

	created, err := e.Create(context.Background(), nil, CreateRequest{
		Subject: ForID(1),
		Data:    models.OperationData{Email: "new@example.com"},
	})
	require.NoError(t, err)
	assert.Nil(t, created)
}
