package question_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/question"
	"github.com/mrhat05/Doubtroom/core/user"
	emailsvc "github.com/mrhat05/Doubtroom/services/email"
	logsvc "github.com/mrhat05/Doubtroom/services/logger"
	inmemdb "github.com/mrhat05/Doubtroom/storage/database/inmem"
)

// fakeAssets keeps uploads in memory. Uploads and deletes fail while failUpload and failDelete are set.
type fakeAssets struct {
	mu         sync.Mutex
	files      map[string][]byte
	seq        int
	failUpload bool
	failDelete bool
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{files: make(map[string][]byte)}
}

func (fa *fakeAssets) UploadImage(_ context.Context, upload core.Upload) (core.Asset, error) {
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return core.Asset{}, err
	}
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.failUpload {
		return core.Asset{}, errors.New("upload down")
	}
	fa.seq++
	id := fmt.Sprintf("questions/%d-%s", fa.seq, upload.Filename)
	fa.files[id] = data
	return core.Asset{URL: "https://cdn.test/" + id, FileID: id}, nil
}

func (fa *fakeAssets) DeleteImage(_ context.Context, fileID string) error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.failDelete {
		return errors.New("storage unavailable")
	}
	delete(fa.files, fileID)
	return nil
}

func (fa *fakeAssets) has(fileID string) bool {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	_, ok := fa.files[fileID]
	return ok
}

type env struct {
	svc     question.Service
	userSvc user.Service
	assets  *fakeAssets
	logs    *bytes.Buffer
	author  user.User
	other   user.User
	admin   user.User
}

func setup(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	db := inmemdb.Open()
	logs := new(bytes.Buffer)
	logger := logsvc.NewRollbarLogger(log.New(logs, "", 0), core.Conf)
	userSvc := user.NewServiceMock(inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(), logger)
	assets := newFakeAssets()

	create := func(name string, isAdmin bool) user.User {
		usr, err := userSvc.Create(ctx, user.NewUser{
			DisplayName:   name,
			Email:         strings.ToLower(name) + "@test.com",
			Password:      "Sup3r$ecret!",
			IsAdmin:       isAdmin,
			EmailVerified: true,
		})
		require.NoError(t, err)
		usr.CollegeName = "Indian Institute of Technology Delhi"
		return usr
	}
	return env{
		svc:     question.NewService(inmemdb.NewQuestionRepository(db), assets, userSvc, logger),
		userSvc: userSvc,
		assets:  assets,
		logs:    logs,
		author:  create("Author", false),
		other:   create("Other", false),
		admin:   create("Admin", true),
	}
}

func photo(name string) *core.Upload {
	return &core.Upload{Filename: name, ContentType: "image/png", Body: strings.NewReader("png:" + name)}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	q, err := e.svc.Create(ctx, e.author, question.NewQuestion{Topic: " Graphs ", Text: "What is a DAG?", Branch: "computer_science_engineering"}, photo("dag.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "Graphs", q.Topic)
	assert.Equal(t, e.author.ID, q.UserID)
	assert.Equal(t, e.author.CollegeName, q.CollegeName)
	require.True(t, q.HasPhoto())
	assert.True(t, e.assets.has(*q.PhotoID))

	got, err := e.svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, got)

	// posting earns star dust and extends the streak
	author, err := e.userSvc.GetByID(ctx, e.author.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Conf.StarDustPointsPerQuestion, author.StarDustPoints)
	assert.Equal(t, 1, author.Streak.Current)

	_, err = e.svc.Create(ctx, e.author, question.NewQuestion{Topic: "x", Text: "  ", Branch: "physics"}, nil)
	_, ok := core.FieldErrors(err)
	assert.True(t, ok)

	_, err = e.svc.Create(ctx, e.author, question.NewQuestion{Topic: "x", Text: "y", Branch: "physics"},
		&core.Upload{Filename: "notes.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF")})
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = e.svc.GetByID(ctx, "unknown")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	base := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	defer func() { user.NowFunc = time.Now }()
	for i, branch := range []string{"physics", "chemistry", "physics"} {
		at := base.Add(time.Duration(i) * time.Hour)
		user.NowFunc = func() time.Time { return at }
		_, err := e.svc.Create(ctx, e.author, question.NewQuestion{Topic: fmt.Sprint("t", i), Text: "?", Branch: branch}, nil)
		require.NoError(t, err)
	}

	questions, err := e.svc.List(ctx, question.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, questions, 3)
	for i := 1; i < len(questions); i++ {
		assert.False(t, questions[i].CreatedAt.After(questions[i-1].CreatedAt), "newest first")
	}
	assert.Equal(t, "t2", questions[0].Topic)
	assert.True(t, base.Add(2*time.Hour).Equal(questions[0].CreatedAt))

	author, err := e.userSvc.GetByID(ctx, e.author.ID)
	require.NoError(t, err)
	require.NotNil(t, author.Streak.LastDate)
	assert.Equal(t, base.Format("2006-01-02"), author.Streak.LastDate.UTC().Format("2006-01-02"), "same clock as the questions")

	questions, err = e.svc.List(ctx, question.QueryFilter{Branch: " physics "})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, []string{"t2", "t0"}, []string{questions[0].Topic, questions[1].Topic})

	questions, err = e.svc.List(ctx, question.QueryFilter{UserID: e.other.ID})
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	q, err := e.svc.Create(ctx, e.author, question.NewQuestion{Topic: "Heaps", Text: "Why O(log n)?", Branch: "physics"}, photo("old.png"))
	require.NoError(t, err)
	oldPhotoID := *q.PhotoID

	topic := "Binary heaps"
	_, err = e.svc.Update(ctx, e.other, q.ID, question.UpdateQuestion{Topic: &topic}, nil)
	assert.True(t, errors.Is(err, core.ErrForbidden))

	blank := "   "
	_, err = e.svc.Update(ctx, e.author, q.ID, question.UpdateQuestion{Text: &blank}, nil)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	_, ok := vErr.FieldMessage("text")
	assert.True(t, ok)

	updated, err := e.svc.Update(ctx, e.author, q.ID, question.UpdateQuestion{Topic: &topic}, photo("new.png"))
	require.NoError(t, err)
	assert.Equal(t, topic, updated.Topic)
	assert.Equal(t, q.Text, updated.Text)
	assert.NotEqual(t, oldPhotoID, *updated.PhotoID)
	assert.False(t, e.assets.has(oldPhotoID))
	assert.True(t, e.assets.has(*updated.PhotoID))

	// admins may edit any question
	text := "Sift down"
	updated, err = e.svc.Update(ctx, e.admin, q.ID, question.UpdateQuestion{Text: &text}, nil)
	require.NoError(t, err)
	assert.Equal(t, text, updated.Text)
	assert.Equal(t, e.author.ID, updated.UserID)

	_, err = e.svc.Update(ctx, e.author, "unknown", question.UpdateQuestion{Text: &text}, nil)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_Update_replacePhotoWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	q, err := e.svc.Create(ctx, e.author, question.NewQuestion{Topic: "Tries", Text: "?", Branch: "physics"}, photo("old.png"))
	require.NoError(t, err)
	oldPhotoID := *q.PhotoID

	e.assets.failDelete = true
	updated, err := e.svc.Update(ctx, e.author, q.ID, question.UpdateQuestion{}, photo("new.png"))
	require.NoError(t, err)
	assert.NotEqual(t, oldPhotoID, *updated.PhotoID)
	assert.True(t, e.assets.has(oldPhotoID), "orphaned")
	assert.Contains(t, e.logs.String(), oldPhotoID)
}

func TestService_Update_uploadFails(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	q, err := e.svc.Create(ctx, e.author, question.NewQuestion{Topic: "Graphs", Text: "?", Branch: "physics"}, photo("a.png"))
	require.NoError(t, err)
	oldPhotoID := *q.PhotoID

	e.assets.failUpload = true
	topic := "DAGs"
	_, err = e.svc.Update(ctx, e.author, q.ID, question.UpdateQuestion{Topic: &topic}, photo("b.png"))
	require.Error(t, err)

	stored, err := e.svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, oldPhotoID, *stored.PhotoID)
	assert.Equal(t, "Graphs", stored.Topic)
	assert.True(t, e.assets.has(oldPhotoID), "the stored record still points at it")
}

func TestService_RemovePhoto(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		failDelete bool
	}{
		{name: "deleted"},
		{name: "delete fails"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			q, err := e.svc.Create(ctx, e.author, question.NewQuestion{Topic: "Stacks", Text: "?", Branch: "physics"}, photo("s.png"))
			require.NoError(t, err)
			photoID := *q.PhotoID

			_, err = e.svc.RemovePhoto(ctx, e.other, q.ID)
			assert.True(t, errors.Is(err, core.ErrForbidden))

			e.assets.failDelete = tt.failDelete
			q, err = e.svc.RemovePhoto(ctx, e.author, q.ID)
			require.NoError(t, err)
			assert.False(t, q.HasPhoto())
			assert.Nil(t, q.Photo)
			assert.Equal(t, tt.failDelete, e.assets.has(photoID))

			stored, err := e.svc.GetByID(ctx, q.ID)
			require.NoError(t, err)
			assert.Nil(t, stored.PhotoID)

			// nothing left to remove
			_, err = e.svc.RemovePhoto(ctx, e.author, q.ID)
			assert.NoError(t, err)
		})
	}
}
