package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"makelaardij/server/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockVersions struct {
	mock.Mock
}

func (m *MockVersions) GetTokenVersion(ctx context.Context, id uint) (int, error) {
	args := m.Called(id)
	return args.Int(0), args.Error(1)
}

func testTokens() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "makelaardij-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{ID: 42, Username: "jan", Email: "jan@example.nl", TokenVersion: 3}
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts := testTokens()

	pair, err := ts.Pair(testUser())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, time.Minute)

	claims, err := ts.Parse(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "jan", claims.Username)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "42", claims.Subject)

	refresh, err := ts.Parse(pair.RefreshToken, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, refresh.Kind)
}

func TestTokenService_WrongKind(t *testing.T) {
	ts := testTokens()
	pair, err := ts.Pair(testUser())
	require.NoError(t, err)

	_, err = ts.Parse(pair.RefreshToken, KindAccess)
	assert.True(t, errors.Is(err, ErrWrongKind))

	_, err = ts.Parse(pair.AccessToken, KindRefresh)
	assert.True(t, errors.Is(err, ErrWrongKind))
}

func TestTokenService_Rejects(t *testing.T) {
	ts := testTokens()
	token, _, err := ts.Sign(testUser(), KindAccess)
	require.NoError(t, err)

	other := ts
	other.Secret = []byte("other-secret")
	_, err = other.Parse(token, KindAccess)
	assert.Error(t, err, "wrong secret")

	otherIssuer := ts
	otherIssuer.Issuer = "someone-else"
	_, err = otherIssuer.Parse(token, KindAccess)
	assert.Error(t, err, "wrong issuer")

	expired := ts
	expired.AccessTTL = -time.Minute
	old, _, err := expired.Sign(testUser(), KindAccess)
	require.NoError(t, err)
	_, err = ts.Parse(old, KindAccess)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Kind: KindAccess})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ts.Parse(unsigned, KindAccess)
	assert.Error(t, err, "alg none")
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))

	_, err = HashPassword("short")
	assert.True(t, errors.Is(err, ErrPasswordLength))

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	assert.True(t, errors.Is(ValidatePassword(string(long)), ErrPasswordLength))
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		claims := MustGetClaims(c)
		if claims == nil {
			c.JSON(http.StatusOK, gin.H{"user_id": 0})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	r.GET("/", handlers...)
	return r
}

func doRequest(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	ts := testTokens()
	pair, err := ts.Pair(testUser())
	require.NoError(t, err)

	versions := &MockVersions{}
	versions.On("GetTokenVersion", uint(42)).Return(3, nil)
	r := newRouter(RequireAuth(ts, versions))

	w := doRequest(r, "Authorization", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42}`, w.Body.String())

	w = doRequest(r, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, "Authorization", "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, "Authorization", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_RevokedVersion(t *testing.T) {
	ts := testTokens()
	pair, err := ts.Pair(testUser())
	require.NoError(t, err)

	versions := &MockVersions{}
	versions.On("GetTokenVersion", uint(42)).Return(4, nil)

	w := doRequest(newRouter(RequireAuth(ts, versions)), "Authorization", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	versions.AssertExpectations(t)
}

func TestOptionalAuth(t *testing.T) {
	ts := testTokens()
	pair, err := ts.Pair(testUser())
	require.NoError(t, err)

	versions := &MockVersions{}
	versions.On("GetTokenVersion", uint(42)).Return(3, nil)
	r := newRouter(OptionalAuth(ts, versions))

	w := doRequest(r, "Authorization", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42}`, w.Body.String())

	w = doRequest(r, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())

	w = doRequest(r, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	closed := newRouter(RequireAdmin("s3cret"))
	assert.Equal(t, http.StatusUnauthorized, doRequest(closed, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(closed, AdminHeader, "wrong").Code)
	assert.Equal(t, http.StatusOK, doRequest(closed, AdminHeader, "s3cret").Code)

	open := newRouter(RequireAdmin(""))
	assert.Equal(t, http.StatusOK, doRequest(open, "", "").Code)
}
