package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mhsanaei/blogpanel/caching"
	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/dbtest"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/web/storage"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	channels []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, data)
	return "id", nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestCheckUser(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	svc := &UserService{}
	_, err := svc.CreateUser(ctx, database.NewUnitOfWork(db), "alice", "alice@x.io", "secret", model.RoleUser, "en")
	require.NoError(t, err)

	uow := database.NewUnitOfWork(db)
	u, err := svc.CheckUser(ctx, uow, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = svc.CheckUser(ctx, uow, "alice@x.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.CheckUser(ctx, uow, "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.CheckUser(ctx, uow, "nobody", "secret")
	assert.ErrorIs(t, err, ErrBadCredentials)

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", u.Id).Update("is_restricted", true).Error)
	_, err = svc.CheckUser(ctx, uow, "alice", "secret")
	assert.ErrorIs(t, err, ErrRestricted)
}

func TestCreateUserDuplicateAndReset(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	svc := &UserService{}
	_, err := svc.CreateUser(ctx, database.NewUnitOfWork(db), "bob", "bob@x.io", "secret", model.RoleAdmin, "en")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, database.NewUnitOfWork(db), "bob", "other@x.io", "secret", model.RoleAdmin, "en")
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	_, err = svc.CreateUser(ctx, database.NewUnitOfWork(db), "carl", "carl@x.io", "secret", "ROLE_GOD", "en")
	assert.Error(t, err)

	require.NoError(t, svc.ResetPassword(ctx, database.NewUnitOfWork(db), "bob", "changed"))
	_, err = svc.CheckUser(ctx, database.NewUnitOfWork(db), "bob", "changed")
	assert.NoError(t, err)
}

func TestAuditLogAction(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	pub := &recordingPublisher{}
	svc := NewAuditLogService(pub)

	require.NoError(t, svc.LogAction(ctx, db, AuditEntry{
		UserId:     1,
		Username:   "admin",
		Action:     ActionCreate,
		Resource:   "user",
		ResourceId: 7,
		Details:    map[string]any{"email": "a@b.com"},
	}))

	logs, err := svc.Recent(ctx, database.NewUnitOfWork(db), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "user", logs[0].Resource)
	assert.JSONEq(t, `{"email":"a@b.com"}`, logs[0].Details)

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "blogpanel.events", pub.channels[0])
	var event map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, "CREATE", event["action"])
	assert.EqualValues(t, 7, event["resourceId"])
}

func TestCleanOldLogs(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	dbtest.Create(t, db,
		&model.AuditLog{Action: ActionDelete, Timestamp: time.Now().AddDate(0, 0, -100)},
		&model.AuditLog{Action: ActionCreate, Timestamp: time.Now()},
	)
	svc := NewAuditLogService(nil)

	_, err := svc.CleanOldLogs(ctx, db, 0)
	assert.Error(t, err)
	n, err := svc.CleanOldLogs(ctx, db, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDashboardStatsCached(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	dbtest.Create(t, db, &model.Post{Title: "p"})
	svc := NewDashboardService(db, caching.NewCache(time.Minute))

	svc.CountRequest()
	svc.CountRequest()
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Counts.Posts)
	assert.EqualValues(t, 2, stats.Requests)
	assert.False(t, svc.LastRefresh().IsZero())

	dbtest.Create(t, db, &model.Post{Title: "q"})
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Counts.Posts, "served from cache")

	require.NoError(t, svc.Refresh(ctx))
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Counts.Posts)
}

func multipartHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestFileUploadOpenRemove(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	store := storage.NewLocalStorage(t.TempDir())
	svc := NewFileService(store)

	file := &model.File{Name: "notes.txt"}
	require.NoError(t, svc.Upload(ctx, database.NewUnitOfWork(db), file, multipartHeader(t, "notes.txt", "hello")))
	require.NotZero(t, file.Id)
	require.NotEmpty(t, file.StorageKey)

	rc, err := svc.Open(ctx, file)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, svc.Remove(ctx, database.NewUnitOfWork(db), file))
	_, err = store.Get(ctx, file.StorageKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = repository.NewFileRepository(database.NewUnitOfWork(db)).FindByID(ctx, file.Id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFileUploadRollsBackBlob(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	dir := t.TempDir()
	svc := NewFileService(storage.NewLocalStorage(dir))

	// The trigger makes the flush fail after the blob was written.
	require.NoError(t, db.Exec("CREATE TRIGGER no_files BEFORE INSERT ON files BEGIN SELECT RAISE(ABORT, 'blocked'); END").Error)
	file := &model.File{Name: "x.txt"}
	err := svc.Upload(ctx, database.NewUnitOfWork(db), file, multipartHeader(t, "x.txt", "data"))
	require.Error(t, err)

	_, err = storage.NewLocalStorage(dir).Get(ctx, file.StorageKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
