package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/handlers"
	"github.com/trackboard/trackboard/internal/httpserver"
	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/repo"
	"github.com/trackboard/trackboard/internal/service"
	"github.com/trackboard/trackboard/internal/testutil"
	"github.com/trackboard/trackboard/internal/tokens"
)

// newAPIServer wires the full router against an in-memory store, without
// Kafka or Elasticsearch, and returns an admin access token for requests.
func newAPIServer(t *testing.T) (*echo.Echo, *gorm.DB, string) {
	t.Helper()

	db := testutil.OpenDB(t)
	store := repo.NewGormRepo(db)
	codec := tokens.NewCodec([]byte("test-secret"), 900*time.Second)
	svc := service.NewAuthService(store, codec, time.Hour)

	admin := testutil.CreateRole(t, db, "admin", "read", "write", "delete", "admin")
	user := testutil.CreateUser(t, db, "admin@example.com", "admin123", "Admin", admin)

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Guard:         authmw.NewGuard(svc),
		Auth:          handlers.NewAuthHandler(svc, nil, 3600, false),
		Organizations: handlers.NewOrganizationHandler(db),
		Projects:      handlers.NewProjectHandler(db, nil),
		Boards:        handlers.NewBoardHandler(db),
		Lists:         handlers.NewListHandler(db),
		Issues:        handlers.NewIssueHandler(db, nil, nil, "issues"),
		Comments:      handlers.NewCommentHandler(db),
		Users:         handlers.NewUserHandler(db),
		Roles:         handlers.NewRoleHandler(db),
		Permissions:   handlers.NewPermissionHandler(db),
		Admin:         handlers.NewAdminHandler(db, codec),
	})

	accessToken, _, err := codec.Issue(fmt.Sprint(user.ID), []string{"admin"}, []string{"read", "write", "delete", "admin"})
	require.NoError(t, err)
	return e, db, accessToken
}

func seedBoard(t *testing.T, db *gorm.DB) (models.Project, models.Board) {
	t.Helper()
	org := models.Organization{Name: "Acme"}
	require.NoError(t, db.Create(&org).Error)
	project := models.Project{Name: "Apollo", OrganizationID: org.ID}
	require.NoError(t, db.Create(&project).Error)
	board := models.Board{Name: "Main", ProjectID: project.ID}
	require.NoError(t, db.Create(&board).Error)
	return project, board
}

func authed(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
}

func TestLists_PositionSequencing(t *testing.T) {
	t.Parallel()

	e, db, token := newAPIServer(t)
	_, board := seedBoard(t, db)

	// New lists append after their siblings: 0, 1, 2.
	for want, name := range []string{"Todo", "Doing", "Done"} {
		body := fmt.Sprintf(`{"name":%q,"boardId":%d}`, name, board.ID)
		rec := doJSON(e, http.MethodPost, "/lists", body, authed(token))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created models.List
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, want, created.Position)
	}

	// A list on another board starts its own sequence at 0.
	other := models.Board{Name: "Other", ProjectID: board.ProjectID}
	require.NoError(t, db.Create(&other).Error)
	rec := doJSON(e, http.MethodPost, "/lists", fmt.Sprintf(`{"name":"Solo","boardId":%d}`, other.ID), authed(token))
	require.Equal(t, http.StatusCreated, rec.Code)
	var solo models.List
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &solo))
	assert.Equal(t, 0, solo.Position)

	rec = doJSON(e, http.MethodPost, "/lists", `{"name":"Orphan","boardId":999}`, authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssues_CreateAndPosition(t *testing.T) {
	t.Parallel()

	e, db, token := newAPIServer(t)
	project, board := seedBoard(t, db)
	list := models.List{Name: "Todo", BoardID: board.ID}
	require.NoError(t, db.Create(&list).Error)

	path := fmt.Sprintf("/projects/%d/issues", project.ID)
	for want, title := range []string{"first", "second", "third"} {
		body := fmt.Sprintf(`{"title":%q,"listId":%d}`, title, list.ID)
		rec := doJSON(e, http.MethodPost, path, body, authed(token))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created models.Issue
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, want, created.Position)
		assert.Equal(t, list.ID, created.ListID)
	}

	// Unknown project and unknown list are distinct 404s.
	rec := doJSON(e, http.MethodPost, "/projects/999/issues", fmt.Sprintf(`{"title":"x","listId":%d}`, list.ID), authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(e, http.MethodPost, path, `{"title":"x","listId":999}`, authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A list that exists but belongs to another project is rejected too.
	foreignProject := models.Project{Name: "Borealis", OrganizationID: project.OrganizationID}
	require.NoError(t, db.Create(&foreignProject).Error)
	foreignBoard := models.Board{Name: "Main", ProjectID: foreignProject.ID}
	require.NoError(t, db.Create(&foreignBoard).Error)
	foreignList := models.List{Name: "Todo", BoardID: foreignBoard.ID}
	require.NoError(t, db.Create(&foreignList).Error)
	rec = doJSON(e, http.MethodPost, path, fmt.Sprintf(`{"title":"x","listId":%d}`, foreignList.ID), authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing title fails validation.
	rec = doJSON(e, http.MethodPost, path, fmt.Sprintf(`{"listId":%d}`, list.ID), authed(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssues_PatchMovesList(t *testing.T) {
	t.Parallel()

	e, db, token := newAPIServer(t)
	project, board := seedBoard(t, db)
	todo := models.List{Name: "Todo", BoardID: board.ID}
	done := models.List{Name: "Done", BoardID: board.ID, Position: 1}
	require.NoError(t, db.Create(&todo).Error)
	require.NoError(t, db.Create(&done).Error)
	issue := models.Issue{Title: "ship it", ListID: todo.ID}
	require.NoError(t, db.Create(&issue).Error)

	path := fmt.Sprintf("/projects/%d/issues/%d", project.ID, issue.ID)
	rec := doJSON(e, http.MethodPatch, path, fmt.Sprintf(`{"listId":%d,"title":"shipped"}`, done.ID), authed(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Issue
	require.NoError(t, db.First(&updated, issue.ID).Error)
	assert.Equal(t, done.ID, updated.ListID)
	assert.Equal(t, "shipped", updated.Title)

	// Moving to a list that does not exist is rejected and nothing changes.
	rec = doJSON(e, http.MethodPatch, path, `{"listId":999}`, authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssues_DeleteAndGet(t *testing.T) {
	t.Parallel()

	e, db, token := newAPIServer(t)
	project, board := seedBoard(t, db)
	list := models.List{Name: "Todo", BoardID: board.ID}
	require.NoError(t, db.Create(&list).Error)
	issue := models.Issue{Title: "flaky test", ListID: list.ID}
	require.NoError(t, db.Create(&issue).Error)

	path := fmt.Sprintf("/projects/%d/issues/%d", project.ID, issue.ID)
	rec := doJSON(e, http.MethodGet, path, "", authed(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flaky test")

	rec = doJSON(e, http.MethodDelete, path, "", authed(token))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodDelete, path, "", authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(e, http.MethodGet, path, "", authed(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssues_GuardedByPermissions(t *testing.T) {
	t.Parallel()

	e, db, _ := newAPIServer(t)
	project, board := seedBoard(t, db)
	list := models.List{Name: "Todo", BoardID: board.ID}
	require.NoError(t, db.Create(&list).Error)

	reader := testutil.CreateRole(t, db, "reader", "read")
	testutil.CreateUser(t, db, "reader@example.com", "password1", "Reader", reader)
	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"reader@example.com","password":"password1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	path := fmt.Sprintf("/projects/%d/issues", project.ID)
	rec = doJSON(e, http.MethodGet, path, "", authed(login.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, path, fmt.Sprintf(`{"title":"nope","listId":%d}`, list.ID), authed(login.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
