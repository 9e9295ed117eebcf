package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "twitch-giveaway-backend/internal/common/errors"
	"twitch-giveaway-backend/internal/common/middleware"
	"twitch-giveaway-backend/internal/features/giveaway/models"
	usermodels "twitch-giveaway-backend/internal/features/user/models"
)

const testSecret = "test-secret"

// stubService returns canned results per method; errors win over values.
type stubService struct {
	giveaway  *models.Giveaway
	response  *models.GiveawayResponse
	responses []*models.GiveawayResponse
	winner    *models.WinnerInfo
	users     []*usermodels.User
	err       error

	joinedAs string
}

func (s *stubService) Create(_ context.Context, _ *models.GiveawayCreate) (*models.Giveaway, error) {
	return s.giveaway, s.err
}

func (s *stubService) GetByID(_ context.Context, _ int64, _ string) (*models.GiveawayResponse, error) {
	return s.response, s.err
}

func (s *stubService) List(_ context.Context, _ string, _ bool) ([]*models.GiveawayResponse, error) {
	return s.responses, s.err
}

func (s *stubService) Update(_ context.Context, _ int64, _ *models.GiveawayUpdate) (*models.Giveaway, error) {
	return s.giveaway, s.err
}

func (s *stubService) Delete(_ context.Context, _ int64) error { return s.err }

func (s *stubService) Join(_ context.Context, _ int64, userID, _ string) error {
	s.joinedAs = userID
	return s.err
}

func (s *stubService) Leave(_ context.Context, _ int64, _ string) error { return s.err }

func (s *stubService) Participants(_ context.Context, _ int64) ([]*usermodels.User, error) {
	return s.users, s.err
}

func (s *stubService) Close(_ context.Context, _ int64) error { return s.err }

func (s *stubService) DrawWinner(_ context.Context, _ int64) (*models.WinnerInfo, error) {
	return s.winner, s.err
}

func (s *stubService) RerollWinner(_ context.Context, _ int64) (*models.WinnerInfo, error) {
	return s.winner, s.err
}

func newTestRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Authenticate(testSecret, nil))

	v1 := router.Group("/api/v1")
	handler := NewGiveawayHandler(svc, nil)
	handler.RegisterRoutes(v1)
	return router
}

func token(t *testing.T, userID string, admin bool) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.SessionClaims{
		DisplayName: "Viewer",
		Admin:       admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func perform(router *gin.Engine, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestListGiveaways(t *testing.T) {
	svc := &stubService{responses: []*models.GiveawayResponse{
		{Giveaway: models.Giveaway{ID: 1, Title: "headset", State: models.GiveawayStateOpen}, ParticipantsCount: 3},
	}}
	router := newTestRouter(svc)

	resp := perform(router, http.MethodGet, "/api/v1/giveaways", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "headset")
	assert.Contains(t, resp.Body.String(), "participants_count")
}

func TestGetGiveaway(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubService{response: &models.GiveawayResponse{
			Giveaway: models.Giveaway{ID: 7, Title: "headset", State: models.GiveawayStateOpen},
		}}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodGet, "/api/v1/giveaways/7", "", "")
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		resp := perform(router, http.MethodGet, "/api/v1/giveaways/abc", "", "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("missing", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewGiveawayNotFoundError(7)}
		router := newTestRouter(svc)
		resp := perform(router, http.MethodGet, "/api/v1/giveaways/7", "", "")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestCreateGiveaway(t *testing.T) {
	t.Run("admin creates", func(t *testing.T) {
		svc := &stubService{giveaway: &models.Giveaway{ID: 1, Title: "headset"}}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways", token(t, "admin", true), `{"title":"headset"}`)
		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("missing title fails binding", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		resp := perform(router, http.MethodPost, "/api/v1/giveaways", token(t, "admin", true), `{}`)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		resp := perform(router, http.MethodPost, "/api/v1/giveaways", token(t, "viewer", false), `{"title":"x"}`)
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("anonymous unauthorized", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		resp := perform(router, http.MethodPost, "/api/v1/giveaways", "", `{"title":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestUpdateGiveaway(t *testing.T) {
	t.Run("negative cash prize fails binding", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		resp := perform(router, http.MethodPut, "/api/v1/giveaways/3", token(t, "admin", true), `{"cash_prize":-5}`)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("closed giveaway is 400", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewInvalidStateError(3, "closed", "update")}
		router := newTestRouter(svc)
		resp := perform(router, http.MethodPut, "/api/v1/giveaways/3", token(t, "admin", true), `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestParticipate(t *testing.T) {
	t.Run("joins as token subject", func(t *testing.T) {
		svc := &stubService{}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/participate", token(t, "u42", false), "")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "u42", svc.joinedAs)
	})

	t.Run("requires auth", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/participate", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("closed giveaway reads as not found", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewInvalidStateError(3, "closed", "join")}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/participate", token(t, "u42", false), "")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("duplicate join conflicts", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewAlreadyParticipatingError(3, "u42")}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/participate", token(t, "u42", false), "")
		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

func TestLeaveGiveaway(t *testing.T) {
	t.Run("not participating is 404", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewNotParticipatingError(3, "u42")}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodDelete, "/api/v1/giveaways/3/participate", token(t, "u42", false), "")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestCloseGiveaway(t *testing.T) {
	t.Run("already closed conflicts", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewAlreadyClosedError(3)}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPut, "/api/v1/giveaways/3/close", token(t, "admin", true), "")
		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

func TestDrawWinnerEndpoint(t *testing.T) {
	t.Run("returns winner", func(t *testing.T) {
		svc := &stubService{winner: &models.WinnerInfo{UserID: "u1", DisplayName: "Viewer One"}}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/draw-winner", token(t, "admin", true), "")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "Viewer One")
	})

	t.Run("no participants is 400", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewNoParticipantsError(3)}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/draw-winner", token(t, "admin", true), "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestRerollWinnerEndpoint(t *testing.T) {
	t.Run("sole participant is 400", func(t *testing.T) {
		svc := &stubService{err: appErrors.NewNoOtherParticipantsError(3)}
		router := newTestRouter(svc)

		resp := perform(router, http.MethodPost, "/api/v1/giveaways/3/reroll-winner", token(t, "admin", true), "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestGetParticipantsEndpoint(t *testing.T) {
	svc := &stubService{users: []*usermodels.User{{ID: "u1", DisplayName: "Viewer One"}}}
	router := newTestRouter(svc)

	resp := perform(router, http.MethodGet, "/api/v1/giveaways/3/participants", token(t, "admin", true), "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Viewer One")

	forbidden := perform(router, http.MethodGet, "/api/v1/giveaways/3/participants", token(t, "viewer", false), "")
	assert.Equal(t, http.StatusForbidden, forbidden.Code)
}
