package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/avoskres/taleweaver/internal/client/config"
	"github.com/avoskres/taleweaver/internal/client/flow"
	"github.com/avoskres/taleweaver/internal/client/identity"
	"github.com/avoskres/taleweaver/internal/client/story"
	"github.com/avoskres/taleweaver/internal/logging"
)

type App struct {
	config     *config.Config
	controller *flow.Controller
	story      *story.Client
	log        logging.Logger
	reader     *bufio.Reader

	mu      sync.Mutex
	session *identity.Session

	// changes is signalled by the controller after every state mutation,
	// letting the REPL wait for an async submit to settle.
	changes chan struct{}
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if cfg.CognitoClientID == "" {
		return nil, fmt.Errorf("cognito client id is not configured (flag -i or config file)")
	}

	gw, err := identity.NewCognitoGateway(ctx, cfg.AWSRegion, cfg.CognitoClientID, cfg.CognitoClientSecret, cfg.RequestTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("identity gateway: %w", err)
	}

	a := &App{
		config:  cfg,
		story:   story.NewClient(cfg.StoryAPIBaseURL, cfg.RequestTimeout, logger),
		log:     logger,
		reader:  bufio.NewReader(os.Stdin),
		changes: make(chan struct{}, 16),
	}

	a.controller = flow.New(gw, logger, a.handleAuthenticated)
	a.controller.SetOnChange(a.stateChanged)

	return a, nil
}

func (a *App) stateChanged(flow.State) {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

func (a *App) handleAuthenticated(sess *identity.Session) {
	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()
}

func (a *App) currentSession() *identity.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *App) isLoggedIn() bool {
	return a.currentSession().Valid()
}

func (a *App) getStatus() string {
	if sess := a.currentSession(); sess.Valid() {
		if name := sess.Username(); name != "" {
			return "(" + name + ")"
		}
		return "(signed in)"
	}
	return "(" + a.controller.State().Mode.String() + ")"
}

// waitIdle blocks until the controller finishes the in-flight call, then
// returns the settled state. Submits that were rejected locally (validation,
// re-entrancy) are already idle.
func (a *App) waitIdle(ctx context.Context) flow.State {
	for {
		st := a.controller.State()
		if !st.Loading {
			return st
		}
		select {
		case <-a.changes:
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return a.controller.State()
		}
	}
}

// renderState prints transient status: field errors first, then the
// top-level error or success message.
func renderState(st flow.State) {
	fields := make([]string, 0, len(st.FieldErrors))
	for f := range st.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		printlnFn(fmt.Sprintf("  %s: %s", f, st.FieldErrors[f]))
	}
	if st.Error != "" {
		printlnFn("Error: " + st.Error)
	}
	if st.Success != "" {
		printlnFn(st.Success)
	}
}

func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to TaleWeaver (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
