// Package twin assembles the in-process Story Spoiler twin: the story API,
// its bearer-token auth and the shared admin control plane.
package twin

import (
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/storyspoiler/storyspoiler/internal/twin/api"
	"github.com/storyspoiler/storyspoiler/internal/twin/store"
	"github.com/storyspoiler/storyspoiler/pkg/admin"
	"github.com/storyspoiler/storyspoiler/pkg/twincore"
)

// Default account accepted by the twin. It matches the suite's shipped
// credentials so `spoiler test` runs unchanged against either host.
const (
	DefaultUsername = "examUser"
	DefaultPassword = "examUser"
	DefaultEmail    = "examUser@storyspoiler.local"
)

// Options configures a Twin.
type Options struct {
	Name    string
	Port    int
	Verbose bool
	Logger  *log.Logger

	// Users replaces the default account when non-empty.
	Users []store.User
	// Secret signs access tokens; empty means a random per-process key.
	Secret   []byte
	TokenTTL time.Duration
	// IDs overrides the story ID generator.
	IDs func() string
}

// Twin is a running Story Spoiler twin.
type Twin struct {
	*twincore.Twin
	Store  *store.MemoryStore
	Tokens *api.TokenManager
}

// New builds a Twin with all routes mounted.
func New(opts Options) (*Twin, error) {
	if opts.Name == "" {
		opts.Name = "storyspoiler-twin"
	}
	users := opts.Users
	if len(users) == 0 {
		users = []store.User{{Username: DefaultUsername, Password: DefaultPassword, Email: DefaultEmail}}
	}

	tokens, err := api.NewTokenManager(opts.Secret, opts.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token manager: %w", err)
	}

	var memStore *store.MemoryStore
	if opts.IDs != nil {
		memStore = store.NewWithIDs(opts.IDs, users...)
	} else {
		memStore = store.New(users...)
	}

	base := twincore.New(&twincore.Config{
		Name:    opts.Name,
		Port:    opts.Port,
		Verbose: opts.Verbose,
		Logger:  opts.Logger,
	})

	api.NewHandler(memStore, tokens, base.Middleware()).Routes(base.Router)
	admin.NewHandler(memStore, base.Middleware()).Routes(base.Router)

	return &Twin{Twin: base, Store: memStore, Tokens: tokens}, nil
}
