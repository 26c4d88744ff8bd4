package operations

import (
	"context"
	"errors"
	"sort"
	"sync"

	"identity_service/internal/models"
	"identity_service/internal/storage"
	"identity_service/internal/users"

	"golang.org/x/crypto/bcrypt"
)

var errBroken = errors.New("connection reset by peer")

type fakeTx struct {
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(context.Context) error {
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rollbacks++
	return nil
}

// fakeDB хранит пользователей и операции в памяти и считает транзакции
type fakeDB struct {
	mu      sync.Mutex
	nextID  int64
	ops     map[int64]models.UserOperation
	users   map[int64]*models.User
	txs     []*fakeTx
	saveErr error
	dropped []int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		ops:   map[int64]models.UserOperation{},
		users: map[int64]*models.User{},
	}
}

func (db *fakeDB) addUser(u models.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID] = &u
}

func (db *fakeDB) user(id int64) models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.users[id]
}

func (db *fakeDB) rowsFor(userID int64, typ models.OperationType) []models.UserOperation {
	db.mu.Lock()
	defer db.mu.Unlock()

	var res []models.UserOperation
	for _, o := range db.ops {
		if o.UserID == userID && o.Type == typ {
			res = append(res, o)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res
}

func (db *fakeDB) lastTx() *fakeTx {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.txs) == 0 {
		return nil
	}
	return db.txs[len(db.txs)-1]
}

func (db *fakeDB) Begin(context.Context) (storage.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	tx := &fakeTx{}
	db.txs = append(db.txs, tx)
	return tx, nil
}

func (db *fakeDB) OperationByToken(_ context.Context, _ storage.Tx, token string, typ models.OperationType) (models.UserOperation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.ops {
		if o.Token == token && o.Type == typ {
			return o, nil
		}
	}
	return models.UserOperation{}, storage.ErrOperationNotFound
}

func (db *fakeDB) OperationByUser(_ context.Context, _ storage.Tx, userID int64, typ models.OperationType) (models.UserOperation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.ops {
		if o.UserID == userID && o.Type == typ {
			return o, nil
		}
	}
	return models.UserOperation{}, storage.ErrOperationNotFound
}

func (db *fakeDB) SaveOperation(_ context.Context, _ storage.Tx, o *models.UserOperation) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.saveErr != nil {
		return db.saveErr
	}
	db.nextID++
	o.ID = db.nextID
	db.ops[o.ID] = *o
	return nil
}

func (db *fakeDB) DeleteOperation(_ context.Context, _ storage.Tx, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.ops, id)
	return nil
}

func (db *fakeDB) ByID(_ context.Context, _ storage.Tx, id int64) (models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return *u, nil
}

func (db *fakeDB) ByEmail(_ context.Context, _ storage.Tx, email string) (models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	email = users.NormalizeEmail(email)
	for _, u := range db.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return models.User{}, storage.ErrUserNotFound
}

func (db *fakeDB) MarkVerified(_ context.Context, _ storage.Tx, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[id].EmailVerified = true
	return nil
}

func (db *fakeDB) SetPassword(ctx context.Context, tx storage.Tx, id int64, password string) error {
	hash, err := db.Hash(password)
	if err != nil {
		return err
	}
	return db.SetPasswordHash(ctx, tx, id, hash)
}

func (db *fakeDB) SetPasswordHash(_ context.Context, _ storage.Tx, id int64, hash []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[id].PassHash = hash
	db.users[id].HasPassword = true
	return nil
}

func (db *fakeDB) SetEmail(_ context.Context, _ storage.Tx, id int64, email string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[id].Email = users.NormalizeEmail(email)
	return nil
}

func (db *fakeDB) Exists(_ context.Context, _ storage.Tx, email string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	email = users.NormalizeEmail(email)
	for _, u := range db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (db *fakeDB) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

func (db *fakeDB) DeleteAllSessionsForUser(_ context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.dropped = append(db.dropped, userID)
	return nil
}

func (db *fakeDB) deps() Deps {
	return Deps{Operations: db, Users: db, Tx: db}
}
