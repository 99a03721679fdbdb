package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
	"github.com/noah-isme/playschool-admin/pkg/logger"
)

type stubValidator struct {
	claims *models.SessionClaims
	err    error
	token  string
}

func (s *stubValidator) ValidateToken(token string) (*models.SessionClaims, error) {
	s.token = token
	return s.claims, s.err
}

func runJWT(v tokenValidator, header string) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	var captured *gin.Context
	r := gin.New()
	r.GET("/private", JWT(v), func(c *gin.Context) {
		captured = c
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(rec, req)
	return rec, captured
}

func TestJWTMissingHeader(t *testing.T) {
	rec, c := runJWT(&stubValidator{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, c)
}

func TestJWTMalformedHeader(t *testing.T) {
	rec, _ := runJWT(&stubValidator{}, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid authorization header")
}

func TestJWTRejectedToken(t *testing.T) {
	rec, _ := runJWT(&stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "session has been signed out")}, "Bearer abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed out")
}

func TestJWTStoresClaims(t *testing.T) {
	v := &stubValidator{claims: &models.SessionClaims{UserID: "u-1", Email: "head@kidzone.com"}}
	rec, c := runJWT(v, "bearer  abc.def ")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c)
	assert.Equal(t, "abc.def", v.token)
	value, ok := c.Get(ContextUserKey)
	require.True(t, ok)
	assert.Equal(t, "u-1", value.(*models.SessionClaims).UserID)
	assert.Equal(t, "u-1", c.GetString(logger.SessionUserKey))
}
