package server

import (
	"net/http"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowFlow(t *testing.T) {
	env := newTestEnv(t)
	alex := env.register(t, "Alex Chen", "alex@example.com")
	jamie := env.register(t, "Jamie Wilson", "jamie@example.com")

	res := env.do(t, http.MethodPost, "/api/users/jamiewilson/follow", nil, alex.Token)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, true, res.object(t)["success"])
	assert.Equal(t, true, res.object(t)["following"])

	res = env.do(t, http.MethodPost, "/api/users/jamiewilson/follow", nil, alex.Token)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, false, res.object(t)["success"])

	res = env.do(t, http.MethodGet, "/api/users/jamiewilson/follow", nil, alex.Token)
	assert.Equal(t, true, res.object(t)["following"])

	var followers []models.PublicUser
	env.do(t, http.MethodGet, "/api/users/jamiewilson/followers", nil, "").decode(t, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, "alexchen", followers[0].Username)

	var following []models.PublicUser
	env.do(t, http.MethodGet, "/api/users/alexchen/following", nil, "").decode(t, &following)
	require.Len(t, following, 1)
	assert.Equal(t, jamie.ID, following[0].ID)

	var stats models.FollowStats
	env.do(t, http.MethodGet, "/api/me/stats", nil, jamie.Token).decode(t, &stats)
	assert.Equal(t, models.FollowStats{Followers: 1, Following: 0}, stats)

	var profile models.Profile
	env.do(t, http.MethodGet, "/api/users/jamiewilson", nil, alex.Token).decode(t, &profile)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, int64(1), profile.Stats.Followers)

	res = env.do(t, http.MethodDelete, "/api/users/jamiewilson/follow", nil, alex.Token)
	require.Equal(t, http.StatusOK, res.Status)

	res = env.do(t, http.MethodGet, "/api/users/jamiewilson/follow", nil, alex.Token)
	assert.Equal(t, false, res.object(t)["following"])
}

func TestFollowErrors(t *testing.T) {
	env := newTestEnv(t)
	alex := env.register(t, "Alex Chen", "alex@example.com")

	res := env.do(t, http.MethodPost, "/api/users/alexchen/follow", nil, alex.Token)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "You cannot follow yourself.", res.object(t)["error"])

	res = env.do(t, http.MethodPost, "/api/users/nobody/follow", nil, alex.Token)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = env.do(t, http.MethodPost, "/api/users/alexchen/follow", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = env.do(t, http.MethodGet, "/api/users/nobody/followers", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Status)
}
