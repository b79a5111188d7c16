package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-rbac-admin/internal/handler"
	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"
	"go-rbac-admin/internal/service"
	"go-rbac-admin/internal/testutil"
	"go-rbac-admin/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type server struct {
	app    *fiber.App
	db     *gorm.DB
	signer *jwt.Signer
}

func newServer(t *testing.T) *server {
	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	permissions := repository.NewPermissionRepo(db)
	dir := repository.NewDirectory(users, roles, permissions)
	authz := service.NewAuthorizer(dir, nil)
	signer := jwt.NewSigner("test-secret", time.Hour)

	app := fiber.New()
	handler.SetupRoutes(app, handler.Dependencies{
		Signer:        signer,
		UserRepo:      users,
		Directory:     dir,
		Authorizer:    authz,
		PolicyService: service.NewPolicyService(db, users, roles, permissions, service.PolicyOptions{}),
		PostService:   service.NewPostService(repository.NewPostRepo(db), authz),
	})
	return &server{app: app, db: db, signer: signer}
}

func (s *server) token(t *testing.T, user *model.User) string {
	token, err := s.signer.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	return token
}

func (s *server) do(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestAdminRoutesRequireAuthentication(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/admin/roles", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/admin/roles", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	s := newServer(t)
	editor := testutil.CreateRole(t, s.db, "editor")
	user := testutil.CreateUser(t, s.db, "e@example.com", &editor.ID)

	status, _ := s.do(t, http.MethodPost, "/api/v1/admin/roles", s.token(t, user), `{"name":"viewer"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminManagesRoles(t *testing.T) {
	s := newServer(t)
	admin := testutil.CreateRole(t, s.db, model.AdminRoleName)
	root := testutil.CreateUser(t, s.db, "root@example.com", &admin.ID)
	token := s.token(t, root)

	status, body := s.do(t, http.MethodPost, "/api/v1/admin/roles", token, `{"name":"ab"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "validation")

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/roles", token, `{"name":"admin"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/admin/roles", token, `{"name":"editor"}`)
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "editor", data["name"])

	status, _ = s.do(t, http.MethodDelete, "/api/v1/admin/roles/999", token, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/admin/roles/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/admin/roles/999/permissions", token, `{"permissions":[]}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCanEndpoint(t *testing.T) {
	s := newServer(t)
	editor := testutil.CreateRole(t, s.db, "editor")
	testutil.Grant(t, s.db, editor, testutil.CreatePermission(t, s.db, "post.update"))
	user := testutil.CreateUser(t, s.db, "e@example.com", &editor.ID)
	other := testutil.CreateUser(t, s.db, "o@example.com", nil)
	token := s.token(t, user)

	status, body := s.do(t, http.MethodGet, "/api/v1/can?action=update&resource=post", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["allowed"])

	_, body = s.do(t, http.MethodGet, "/api/v1/can?action=update&resource=post&owner_id="+other.ID.String(), token, "")
	assert.Equal(t, false, body["allowed"])

	_, body = s.do(t, http.MethodGet, "/api/v1/can?action=delete&resource=post", token, "")
	assert.Equal(t, false, body["allowed"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/can?action=update&resource=post&owner_id=nope", token, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePostNeedsPermission(t *testing.T) {
	s := newServer(t)
	guest := testutil.CreateUser(t, s.db, "g@example.com", nil)

	status, _ := s.do(t, http.MethodPost, "/api/v1/posts", s.token(t, guest), `{"title":"t","body":"b"}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/posts", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestPublicPostListHidesOwnerDetails(t *testing.T) {
	s := newServer(t)
	editor := testutil.CreateRole(t, s.db, "editor")
	testutil.Grant(t, s.db, editor, testutil.CreatePermission(t, s.db, "post.create"))
	author := testutil.CreateUser(t, s.db, "author@example.com", &editor.ID)

	status, _ := s.do(t, http.MethodPost, "/api/v1/posts", s.token(t, author), `{"title":"hello","body":"world"}`)
	require.Equal(t, http.StatusCreated, status)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var posts []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, author.ID.String(), posts[0]["owner_id"])
	assert.NotContains(t, posts[0], "owner")
	assert.NotContains(t, string(raw), "author@example.com")
}
