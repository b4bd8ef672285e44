package tips

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

func TestClientListTips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dicas", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","titulo":"Sleep early","descricao":"Be in bed by 23:00."}]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api/", time.Second)
	require.NoError(t, err)

	list, err := c.ListTips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Tip{{ID: "1", Title: "Sleep early", Description: "Be in bed by 23:00."}}, list)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dicas" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = c.ListTips(context.Background())
	assert.ErrorContains(t, err, "503")

	_, err = NewClient("ftp://example.com", time.Second)
	assert.Error(t, err)
}

func TestClientBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = c.ListTips(context.Background())
	assert.ErrorContains(t, err, "decode tips")
}

type stubSource struct {
	list []domain.Tip
	err  error
}

func (s stubSource) ListTips(context.Context) ([]domain.Tip, error) { return s.list, s.err }

func TestFallback(t *testing.T) {
	backup := func() ([]domain.Tip, error) { return []domain.Tip{{ID: "b"}}, nil }

	var seen error
	f := Fallback{Primary: stubSource{err: errors.New("offline")}, Backup: backup, OnError: func(err error) { seen = err }}
	list, err := f.ListTips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", list[0].ID)
	assert.EqualError(t, seen, "offline")

	f = Fallback{Primary: stubSource{list: []domain.Tip{{ID: "p"}}}, Backup: backup}
	list, err = f.ListTips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p", list[0].ID)

	f = Fallback{Primary: stubSource{}, Backup: backup}
	list, err = f.ListTips(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", list[0].ID)
}

func TestPick(t *testing.T) {
	_, ok := Pick(nil, nil)
	assert.False(t, ok)

	list := []domain.Tip{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	r1 := rand.New(rand.NewPCG(1, 2))
	r2 := rand.New(rand.NewPCG(1, 2))
	a, ok := Pick(list, r1)
	require.True(t, ok)
	b, _ := Pick(list, r2)
	assert.Equal(t, a, b)
	assert.Contains(t, list, a)
}
