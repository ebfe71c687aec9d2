package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frameextractor/frameextractor/internal/common"
	"github.com/frameextractor/frameextractor/internal/cryptox"
	"github.com/frameextractor/frameextractor/internal/server/accounts"
	"github.com/frameextractor/frameextractor/internal/server/auth"
	"github.com/frameextractor/frameextractor/internal/server/frames"
)

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, to, subject, body string) error { return nil }

type syncTasks struct{}

func (syncTasks) Submit(name string, task func(ctx context.Context) error) {
	_ = task(context.Background())
}

// stubUploader pretends every archive upload succeeds.
type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, key, filePath string) (string, error) {
	return "http://cdn.test/frame-archives/" + key, nil
}

// stubTranscoder writes two frame files for any input.
type stubTranscoder struct{}

func (stubTranscoder) ExtractFrames(ctx context.Context, videoPath, outputPattern string, interval int) error {
	for i := 1; i <= 2; i++ {
		if err := os.WriteFile(fmt.Sprintf(outputPattern, i), []byte("jpeg"), 0o660); err != nil {
			return err
		}
	}
	return nil
}

// fakeArchives records keys per user.
type fakeArchives struct {
	byUser map[string][]string
}

func (f *fakeArchives) List(ctx context.Context, username string) ([]string, error) {
	return f.byUser[username], nil
}

func (f *fakeArchives) Delete(ctx context.Context, username, filename string) error {
	for i, u := range f.byUser[username] {
		if u == filename {
			f.byUser[username] = append(f.byUser[username][:i], f.byUser[username][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", common.ErrNotFound, username, filename)
}

type testEnv struct {
	server   *Server
	accounts *accounts.Service
	archives *fakeArchives
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens := auth.NewTokenService("test-secret", time.Hour, 15*time.Minute)
	cipher := cryptox.NewEmailCipher("email-secret")
	acc := accounts.NewService(accounts.NewInMemoryRepository(), tokens, cipher,
		nopMailer{}, syncTasks{}, "http://front.test")

	resolver := &emailResolver{acc: acc}
	fr := frames.NewService(stubUploader{}, resolver, nopMailer{}, syncTasks{}, stubTranscoder{}, 1<<20)

	arch := &fakeArchives{byUser: map[string][]string{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		server:   NewServer(acc, fr, arch, tokens, logger),
		accounts: acc,
		archives: arch,
	}
}

type emailResolver struct {
	acc *accounts.Service
}

func (r *emailResolver) ResolveEmail(ctx context.Context, username string) (string, error) {
	return r.acc.ResolveEmail(ctx, username)
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonReq(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set(echoHeaderContentType, "application/json")
	return req
}

const echoHeaderContentType = "Content-Type"

func (e *testEnv) registerAndLogin(t *testing.T, username, email, password string) string {
	t.Helper()
	rec := e.do(jsonReq(http.MethodPost, "/api/register",
		map[string]string{"username": username, "email": email, "password": password}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": password}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, e.accounts.EnsureAdmin(context.Background(),
		"administrator", "administrator@email.com", "administrator"))
	token, err := e.accounts.Authenticate(context.Background(), "administrator", "administrator")
	require.NoError(t, err)
	return token
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRegister_DuplicateUsernameRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonReq(http.MethodPost, "/api/register",
		map[string]string{"username": "alice", "email": "a@x.com", "password": "pw"}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(jsonReq(http.MethodPost, "/api/register",
		map[string]string{"username": "alice", "email": "other@x.com", "password": "pw"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is already in use")
}

func TestRegister_MissingFieldsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonReq(http.MethodPost, "/api/register",
		map[string]string{"username": "alice"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice", "a@x.com", "pw")

	rec := env.do(jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec2 := env.do(jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": "ghost", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	// No leak about which of the two was wrong.
	assert.JSONEq(t, rec.Body.String(), rec2.Body.String())
}

func TestLogin_InactiveAccountForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice", "a@x.com", "pw")
	require.NoError(t, env.accounts.SetStatus(context.Background(), "alice", accounts.StatusInactive))

	rec := env.do(jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "pw"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
}

func TestListUsers_RequiresAdministrator(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.registerAndLogin(t, "alice", "a@x.com", "pw")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(bearer(httptest.NewRequest(http.MethodGet, "/api/users", nil), userToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(bearer(httptest.NewRequest(http.MethodGet, "/api/users", nil), env.adminToken(t)))
	require.Equal(t, http.StatusOK, rec.Code)

	var users []accounts.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "administrator", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)
}

func TestActivateDeactivate(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice", "a@x.com", "pw")
	admin := env.adminToken(t)

	rec := env.do(bearer(httptest.NewRequest(http.MethodPost, "/api/users/alice/deactivate", nil), admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")

	rec = env.do(jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "pw"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(bearer(httptest.NewRequest(http.MethodPost, "/api/users/alice/activate", nil), admin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(jsonReq(http.MethodPost, "/api/login",
		map[string]string{"username": "alice", "password": "pw"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActivate_UnknownUserNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(bearer(httptest.NewRequest(http.MethodPost, "/api/users/ghost/activate", nil), env.adminToken(t)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice", "a@x.com", "pw")

	rec := env.do(jsonReq(http.MethodPost, "/api/forgot-password",
		map[string]string{"email": "a@x.com"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(jsonReq(http.MethodPost, "/api/forgot-password",
		map[string]string{"email": "ghost@x.com"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetPassword_InvalidTokenBadRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(jsonReq(http.MethodPost, "/api/reset-password",
		map[string]string{"token": "garbage", "new_password": "newpw"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartVideo(t *testing.T, filename, interval string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader([]byte("fake video bytes")))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("interval", interval))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process-video", &buf)
	req.Header.Set(echoHeaderContentType, mw.FormDataContentType())
	return req
}

func TestProcessVideo(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "a@x.com", "pw")

	rec := env.do(multipartVideo(t, "clip.mp4", "10"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(bearer(multipartVideo(t, "clip.mp4", "10"), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Message string `json:"message"`
		FileURL string `json:"file_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.FileURL, "http://cdn.test/frame-archives/alice/")
}

func TestProcessVideo_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice", "a@x.com", "pw")

	rec := env.do(bearer(multipartVideo(t, "clip.mp4", "0"), token))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(bearer(multipartVideo(t, "clip.gif", "10"), token))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(bearer(multipartVideo(t, "clip.mp4", "ten"), token))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestArchiveRoutes_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAndLogin(t, "alice", "a@x.com", "pw")
	bob := env.registerAndLogin(t, "bob", "b@x.com", "pw")
	env.archives.byUser["alice"] = []string{"one.zip", "two.zip"}

	rec := env.do(bearer(httptest.NewRequest(http.MethodGet, "/api/alice/list-frame-archives", nil), alice))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Archives []string `json:"archives"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"one.zip", "two.zip"}, resp.Archives)

	rec = env.do(bearer(httptest.NewRequest(http.MethodGet, "/api/alice/list-frame-archives", nil), bob))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Administrators get no cross-user bypass on archive routes.
	rec = env.do(bearer(httptest.NewRequest(http.MethodGet, "/api/alice/list-frame-archives", nil), env.adminToken(t)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestArchiveRoutes_PathCasingDoesNotLockOutOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAndLogin(t, "alice", "a@x.com", "pw")
	env.archives.byUser["alice"] = []string{"one.zip"}

	rec := env.do(bearer(httptest.NewRequest(http.MethodGet, "/api/Alice/list-frame-archives", nil), alice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Archives []string `json:"archives"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"one.zip"}, resp.Archives)

	rec = env.do(bearer(httptest.NewRequest(http.MethodDelete, "/api/ALICE/delete-frame-archive/one.zip", nil), alice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, env.archives.byUser["alice"])
}

func TestDeleteArchive(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAndLogin(t, "alice", "a@x.com", "pw")
	env.archives.byUser["alice"] = []string{"one.zip"}

	rec := env.do(bearer(httptest.NewRequest(http.MethodDelete, "/api/alice/delete-frame-archive/one.zip", nil), alice))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.archives.byUser["alice"])

	rec = env.do(bearer(httptest.NewRequest(http.MethodDelete, "/api/alice/delete-frame-archive/one.zip", nil), alice))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
