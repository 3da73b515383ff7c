package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mlevchenko/studyhub/internal/models"
	"github.com/mlevchenko/studyhub/internal/repo"
	"github.com/mlevchenko/studyhub/internal/tokens"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu    sync.Mutex
	err   error
	sends []sentMail
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sends, "expected at least one mail")
	return f.sends[len(f.sends)-1]
}

type publishedEvent struct {
	Topic   string
	Key     string
	Payload map[string]any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeEvents) PublishEvent(ctx context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, _ := event.(map[string]any)
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (f *fakeEvents) countType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Payload["type"] == eventType {
			n++
		}
	}
	return n
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Subject{}))
	return db
}

type authEnv struct {
	svc    *AuthService
	repo   *repo.GormRepo
	codec  *tokens.Codec
	mailer *fakeMailer
	events *fakeEvents
	db     *gorm.DB
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	db := newTestDB(t)
	rp := &repo.GormRepo{DB: db}
	codec := tokens.NewCodec([]byte("test-jwt-secret"))
	fm := &fakeMailer{}
	fe := &fakeEvents{}

	return &authEnv{
		svc: &AuthService{
			Repo:    rp,
			Codec:   codec,
			Mailer:  fm,
			Events:  fe,
			BaseURL: "http://localhost:8080",
		},
		repo:   rp,
		codec:  codec,
		mailer: fm,
		events: fe,
		db:     db,
	}
}

// verificationToken pulls the token out of the last verification mail body.
func verificationToken(t *testing.T, fm *fakeMailer) string {
	t.Helper()

	body := fm.last(t).Body
	_, token, found := strings.Cut(body, "token=")
	require.True(t, found, "mail body carries no token: %s", body)
	return token
}
