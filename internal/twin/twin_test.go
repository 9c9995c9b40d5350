package twin

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyspoiler/storyspoiler/internal/twin/store"
	pkgstore "github.com/storyspoiler/storyspoiler/pkg/store"
	"github.com/storyspoiler/storyspoiler/pkg/testutil"
)

func quiet() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func TestNewDefaults(t *testing.T) {
	tw, err := New(Options{Logger: quiet()})
	require.NoError(t, err)

	assert.Equal(t, "storyspoiler-twin", tw.Config.Name)
	u, ok := tw.Store.User(DefaultUsername)
	require.True(t, ok)
	assert.Equal(t, DefaultPassword, u.Password)
}

func TestNewCustomUsersAndIDs(t *testing.T) {
	tw, err := New(Options{
		Logger: quiet(),
		Users:  []store.User{{Username: "alice", Password: "pw"}},
		IDs:    pkgstore.Sequential("s"),
		Secret: []byte("k"),
	})
	require.NoError(t, err)

	_, ok := tw.Store.User(DefaultUsername)
	assert.False(t, ok)

	srv := httptest.NewServer(tw)
	t.Cleanup(srv.Close)
	e := testutil.NewExpect(t, srv)

	token := e.POST("/api/User/Authentication").
		WithJSON(map[string]string{"username": "alice", "password": "pw"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("accessToken").String().Raw()

	sub, err := tw.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	e.POST("/api/Story/Create").
		WithHeader("Authorization", testutil.Bearer(token)).
		WithJSON(map[string]string{"title": "t", "description": "d"}).
		Expect().Status(http.StatusCreated).
		JSON().Object().HasValue("storyId", "s_000001")

	testutil.NewAdmin(e).Health()
}
