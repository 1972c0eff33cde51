package unsplash_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unsplash-cli/internal/api"
	"unsplash-cli/internal/unsplash"
)

func TestFetchProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me", r.URL.Path)
		w.Write([]byte(`{"username":"jane_doe","first_name":"Jane","last_name":"Doe","bio":"Street photographer"}`))
	}))
	defer ts.Close()

	client := unsplash.NewProfileClient(api.NewClient(), ts.URL)
	profile, err := client.FetchProfile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "jane_doe", profile.Username)
	assert.Equal(t, "Jane Doe", profile.DisplayName())
	assert.Equal(t, "@jane_doe", profile.LoginHandle())
	assert.Equal(t, "Street photographer", profile.Bio)
}

func TestFetchProfile_NullBio(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"username":"jane_doe","first_name":"Jane","last_name":"","bio":null}`))
	}))
	defer ts.Close()

	client := unsplash.NewProfileClient(api.NewClient(), ts.URL)
	profile, err := client.FetchProfile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", profile.Bio)
	assert.Equal(t, "Jane", profile.DisplayName())
}

func TestFetchAvatarURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/jane_doe", r.URL.Path)
		w.Write([]byte(`{"profile_image":{"small":"https://img.example.com/s","medium":"https://img.example.com/m","large":"https://img.example.com/l"}}`))
	}))
	defer ts.Close()

	client := unsplash.NewProfileClient(api.NewClient(), ts.URL)
	avatar, err := client.FetchAvatarURL(context.Background(), "jane_doe")

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/l", avatar.String())
}

func TestFetchAvatarURL_MissingLargeVariant(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"profile_image":{}}`))
	}))
	defer ts.Close()

	client := unsplash.NewProfileClient(api.NewClient(), ts.URL)
	avatar, err := client.FetchAvatarURL(context.Background(), "jane_doe")

	assert.Nil(t, avatar)
	var decodeErr *api.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestProfileDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		profile unsplash.Profile
		want    string
	}{
		{
			name:    "first and last",
			profile: unsplash.Profile{Username: "j", FirstName: "Jane", LastName: "Doe"},
			want:    "Jane Doe",
		},
		{
			name:    "first only",
			profile: unsplash.Profile{Username: "j", FirstName: "Jane"},
			want:    "Jane",
		},
		{
			name:    "last only",
			profile: unsplash.Profile{Username: "j", LastName: "Doe"},
			want:    "Doe",
		},
		{
			name:    "username fallback",
			profile: unsplash.Profile{Username: "j"},
			want:    "j",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.DisplayName())
		})
	}
}
