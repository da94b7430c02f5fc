package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messageboard-backend/internal/domains/post/model"
	"messageboard-backend/internal/infrastructure/changefeed"
)

// fakeRepo is an in-memory PostRepository. List mirrors the SQL contract:
// created_at DESC with id DESC as the tie-break.
type fakeRepo struct {
	posts     map[uuid.UUID]model.Post
	insertErr error
	ops       *[]string
}

func newFakeRepo(ops *[]string) *fakeRepo {
	return &fakeRepo{posts: make(map[uuid.UUID]model.Post), ops: ops}
}

func (f *fakeRepo) record(op string) {
	if f.ops != nil {
		*f.ops = append(*f.ops, op)
	}
}

func (f *fakeRepo) Insert(_ context.Context, post *model.Post) error {
	f.record("insert")
	if f.insertErr != nil {
		return f.insertErr
	}
	post.ID = uuid.New()
	post.CreatedAt = time.Now()
	f.posts[post.ID] = *post
	return nil
}

func (f *fakeRepo) ListWithAuthors(_ context.Context) ([]model.Post, error) {
	out := make([]model.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	return &p, nil
}

func (f *fakeRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	p, ok := f.posts[id]
	if !ok || p.UserID != userID {
		return model.ErrPostNotFound
	}
	delete(f.posts, id)
	return nil
}

// fakeStore records uploads and removals
type fakeStore struct {
	uploads   []string
	removes   []string
	uploadErr error
	removeErr error
	ops       *[]string
}

func (f *fakeStore) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	if f.ops != nil {
		*f.ops = append(*f.ops, "upload")
	}
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeStore) Remove(_ context.Context, keys ...string) error {
	f.removes = append(f.removes, keys...)
	if f.removeErr != nil {
		return f.removeErr
	}
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "http://localhost:9000/images/" + key
}

func newTestService(repo *fakeRepo, store *fakeStore) (PostService, *changefeed.MemoryBroker) {
	broker := changefeed.NewMemoryBroker()
	return NewPostService(repo, store, broker), broker
}

func TestCreate_WithoutAttachment(t *testing.T) {
	var ops []string
	repo := newFakeRepo(&ops)
	store := &fakeStore{ops: &ops}
	svc, _ := newTestService(repo, store)

	userID := uuid.New()
	dto, err := svc.Create(context.Background(), userID, model.CreatePostRequest{Content: "hello"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"insert"}, ops, "exactly one insert, zero uploads")
	assert.Nil(t, dto.ImageID)
	assert.Nil(t, dto.ImageURL)
	assert.Equal(t, userID, dto.UserID)
}

func TestCreate_WithAttachment(t *testing.T) {
	var ops []string
	repo := newFakeRepo(&ops)
	store := &fakeStore{ops: &ops}
	svc, _ := newTestService(repo, store)

	userID := uuid.New()
	att := &Attachment{Reader: bytes.NewReader([]byte("png")), Size: 3, ContentType: "image/png"}

	dto, err := svc.Create(context.Background(), userID, model.CreatePostRequest{Content: "with pic"}, att)
	require.NoError(t, err)

	// Row insert first, then exactly one upload.
	assert.Equal(t, []string{"insert", "upload"}, ops)
	require.NotNil(t, dto.ImageID)
	require.Len(t, store.uploads, 1)
	assert.Equal(t, model.AttachmentKey(userID, *dto.ImageID), store.uploads[0])
	require.NotNil(t, dto.ImageURL)
	assert.Contains(t, *dto.ImageURL, dto.ImageID.String())
}

func TestCreate_UploadFailureLeavesRow(t *testing.T) {
	var ops []string
	repo := newFakeRepo(&ops)
	store := &fakeStore{ops: &ops, uploadErr: errors.New("bucket unreachable")}
	svc, _ := newTestService(repo, store)

	userID := uuid.New()
	att := &Attachment{Reader: bytes.NewReader([]byte("png")), Size: 3, ContentType: "image/png"}

	_, err := svc.Create(context.Background(), userID, model.CreatePostRequest{Content: "with pic"}, att)
	require.Error(t, err)

	var perr *model.PostError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ErrCodeStorage, perr.Code)

	// The row stays, dangling image_id included.
	posts, lerr := svc.List(context.Background())
	require.NoError(t, lerr)
	require.Len(t, posts, 1)
	assert.NotNil(t, posts[0].ImageID)
}

func TestCreate_InsertRejected(t *testing.T) {
	var ops []string
	repo := newFakeRepo(&ops)
	repo.insertErr = errors.New("constraint violation")
	store := &fakeStore{ops: &ops}
	svc, _ := newTestService(repo, store)

	att := &Attachment{Reader: bytes.NewReader([]byte("png")), Size: 3, ContentType: "image/png"}
	_, err := svc.Create(context.Background(), uuid.New(), model.CreatePostRequest{Content: "x"}, att)
	require.Error(t, err)

	var perr *model.PostError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ErrCodePersistence, perr.Code)

	// No upload happens after a rejected insert.
	assert.Equal(t, []string{"insert"}, ops)
}

func TestCreate_EmptyContent(t *testing.T) {
	var ops []string
	repo := newFakeRepo(&ops)
	svc, _ := newTestService(repo, &fakeStore{})

	_, err := svc.Create(context.Background(), uuid.New(), model.CreatePostRequest{Content: ""}, nil)
	assert.Error(t, err)
	assert.Empty(t, ops, "no insert on validation failure")
}

func TestCreate_NoIdentity(t *testing.T) {
	repo := newFakeRepo(nil)
	svc, _ := newTestService(repo, &fakeStore{})

	_, err := svc.Create(context.Background(), uuid.Nil, model.CreatePostRequest{Content: "hello"}, nil)
	var perr *model.PostError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ErrCodeAuth, perr.Code)
}

func TestCreate_PublishesInsertEvent(t *testing.T) {
	repo := newFakeRepo(nil)
	svc, broker := newTestService(repo, &fakeStore{})
	defer broker.Close()

	sub, err := broker.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	dto, err := svc.Create(context.Background(), uuid.New(), model.CreatePostRequest{Content: "hi"}, nil)
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, changefeed.ActionInsert, ev.Action)
		assert.Equal(t, dto.ID, ev.PostID)
	case <-time.After(time.Second):
		t.Fatal("no insert event published")
	}
}

func TestList_NewestFirst(t *testing.T) {
	repo := newFakeRepo(nil)
	store := &fakeStore{}
	svc, _ := newTestService(repo, store)

	base := time.Now()
	t1, t2, t3 := base, base.Add(time.Minute), base.Add(2*time.Minute)
	for _, ts := range []time.Time{t1, t2, t3} {
		repo.posts[uuid.New()] = model.Post{ID: uuid.New(), Content: "p", UserID: uuid.New(), CreatedAt: ts}
	}

	posts, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, t3.Unix(), posts[0].CreatedAt.Unix())
	assert.Equal(t, t2.Unix(), posts[1].CreatedAt.Unix())
	assert.Equal(t, t1.Unix(), posts[2].CreatedAt.Unix())
}

func TestDelete_Owner(t *testing.T) {
	repo := newFakeRepo(nil)
	store := &fakeStore{}
	svc, _ := newTestService(repo, store)

	userID := uuid.New()
	imageID := uuid.New()
	postID := uuid.New()
	repo.posts[postID] = model.Post{ID: postID, Content: "mine", UserID: userID, ImageID: &imageID}

	require.NoError(t, svc.Delete(context.Background(), userID, postID))

	_, err := repo.GetByID(context.Background(), postID)
	assert.ErrorIs(t, err, model.ErrPostNotFound)
	assert.Equal(t, []string{model.AttachmentKey(userID, imageID)}, store.removes)
}

func TestDelete_NotOwner(t *testing.T) {
	repo := newFakeRepo(nil)
	svc, _ := newTestService(repo, &fakeStore{})

	owner := uuid.New()
	postID := uuid.New()
	repo.posts[postID] = model.Post{ID: postID, Content: "theirs", UserID: owner}

	err := svc.Delete(context.Background(), uuid.New(), postID)
	assert.ErrorIs(t, err, model.ErrNotPostOwner)

	// Row untouched.
	_, gerr := repo.GetByID(context.Background(), postID)
	assert.NoError(t, gerr)
}

func TestDelete_AttachmentRemovalFailureIsSwallowed(t *testing.T) {
	repo := newFakeRepo(nil)
	store := &fakeStore{removeErr: errors.New("object store down")}
	svc, _ := newTestService(repo, store)

	userID := uuid.New()
	imageID := uuid.New()
	postID := uuid.New()
	repo.posts[postID] = model.Post{ID: postID, Content: "mine", UserID: userID, ImageID: &imageID}

	// Row delete succeeded; the orphaned object is an accepted leak.
	assert.NoError(t, svc.Delete(context.Background(), userID, postID))
	_, err := repo.GetByID(context.Background(), postID)
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}

func TestDelete_PublishesDeleteEvent(t *testing.T) {
	repo := newFakeRepo(nil)
	svc, broker := newTestService(repo, &fakeStore{})
	defer broker.Close()

	userID := uuid.New()
	postID := uuid.New()
	repo.posts[postID] = model.Post{ID: postID, Content: "mine", UserID: userID}

	sub, err := broker.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.Delete(context.Background(), userID, postID))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, changefeed.ActionDelete, ev.Action)
		assert.Equal(t, postID, ev.PostID)
	case <-time.After(time.Second):
		t.Fatal("no delete event published")
	}
}

func TestDelete_MissingPost(t *testing.T) {
	repo := newFakeRepo(nil)
	svc, _ := newTestService(repo, &fakeStore{})

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, model.ErrPostNotFound)
}
