package repository

import (
	"context"
	"testing"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/dbtest"
	"github.com/mhsanaei/blogpanel/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByIDNotFound(t *testing.T) {
	uow := database.NewUnitOfWork(dbtest.Open(t))
	_, err := NewUserRepository(uow).FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddRemoveFlush(t *testing.T) {
	ctx := context.Background()
	uow := database.NewUnitOfWork(dbtest.Open(t))
	files := NewFileRepository(uow)

	f := &model.File{Name: "a.txt", StorageKey: "k1"}
	files.Add(f)
	require.NoError(t, uow.Flush(ctx))
	require.NotZero(t, f.Id)

	found, err := files.FindByID(ctx, f.Id)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", found.Name)

	files.Remove(found)
	_, err = files.FindByID(ctx, f.Id)
	require.NoError(t, err, "remove is staged until flush")
	require.NoError(t, uow.Flush(ctx))
	_, err = files.FindByID(ctx, f.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindAllOrdered(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	dbtest.Create(t, db, &model.Post{Title: "one"}, &model.Post{Title: "two"})

	posts, err := NewPostRepository(database.NewUnitOfWork(db)).FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Less(t, posts[0].Id, posts[1].Id)
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	u := &model.User{Username: "alice", Email: "alice@x.io", Password: "x"}
	dbtest.Create(t, db, u)
	users := NewUserRepository(database.NewUnitOfWork(db))

	byName, err := users.FindByLogin(ctx, "alice")
	require.NoError(t, err)
	byMail, err := users.FindByLogin(ctx, "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, byName.Id, byMail.Id)

	taken, err := users.Taken(ctx, "email", "alice@x.io", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = users.Taken(ctx, "email", "alice@x.io", u.Id)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCommentsByPostPreloadAuthor(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	u := &model.User{Username: "bob", Email: "bob@x.io", Password: "x"}
	p1, p2 := &model.Post{Title: "p1"}, &model.Post{Title: "p2"}
	dbtest.Create(t, db, u, p1, p2)
	dbtest.Create(t, db,
		&model.Comment{Body: "first", PostId: p1.Id, AuthorId: u.Id},
		&model.Comment{Body: "other", PostId: p2.Id, AuthorId: u.Id},
	)

	comments, err := NewCommentRepository(database.NewUnitOfWork(db)).FindByPost(ctx, p1.Id)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "bob", comments[0].Author.Username)
	assert.Equal(t, "p1", comments[0].Post.Title)
}

func TestDuplicateIsTranslated(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	dbtest.Create(t, db, &model.User{Username: "dup", Email: "dup@x.io", Password: "x"})
	uow := database.NewUnitOfWork(db)
	NewUserRepository(uow).Add(&model.User{Username: "dup", Email: "new@x.io", Password: "x"})
	assert.True(t, IsDuplicate(uow.Flush(ctx)))
}
