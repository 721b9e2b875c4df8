package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	apierrors "github.com/lolo262652/tasknot/internal/errors"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
)

// RestGateway talks to the hosted gateway over its HTTP API and websocket
// change feed. The session cookie lives in the client's jar, so one
// RestGateway is one authenticated session. A circuit breaker guards the
// HTTP path against a flapping backend.
type RestGateway struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	jar     http.CookieJar
	baseURL string
	log     *logrus.Entry
}

// NewRestGateway creates a gateway client for the service at baseURL.
func NewRestGateway(baseURL string) (*RestGateway, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid gateway url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL + "/api").
		SetCookieJar(jar)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gateway",
		Timeout: 10 * time.Second,
	})

	return &RestGateway{
		http:    client,
		breaker: breaker,
		jar:     jar,
		baseURL: baseURL,
		log:     logrus.WithField("component", "gateway"),
	}, nil
}

// execute runs one request through the breaker. Only transport failures
// count against the breaker; an HTTP error status is the backend answering.
func (g *RestGateway) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return req.Execute(method, path)
	})
	if err != nil {
		return nil, err
	}
	return res.(*resty.Response), nil
}

func (g *RestGateway) do(ctx context.Context, method, path string, body, out any) error {
	req := g.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	var apiErr apierrors.APIError
	req.SetError(&apiErr)
	if out != nil {
		req.SetResult(out)
	}

	resp, err := g.execute(req, method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		if apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("gateway returned %s", resp.Status())
	}
	return nil
}

func (g *RestGateway) Auth() AuthAPI          { return restAuth{g} }
func (g *RestGateway) Tasks() TaskAPI         { return restTasks{g} }
func (g *RestGateway) Documents() DocumentAPI { return restDocuments{g} }
func (g *RestGateway) History() HistoryAPI    { return restHistory{g} }
func (g *RestGateway) Profiles() ProfileAPI   { return restProfiles{g} }
func (g *RestGateway) Storage() ObjectStorage { return restStorage{g} }

type restAuth struct{ g *RestGateway }

func (a restAuth) SignUp(ctx context.Context, email, password, fullName string) (*models.Profile, error) {
	var profile models.Profile
	err := a.g.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a restAuth) SignIn(ctx context.Context, email, password string) (*models.Profile, error) {
	var profile models.Profile
	err := a.g.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a restAuth) SignOut(ctx context.Context) error {
	return a.g.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (a restAuth) CurrentProfile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := a.g.do(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

type restTasks struct{ g *RestGateway }

func (t restTasks) List(ctx context.Context) ([]models.Task, error) {
	var out struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := t.g.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (t restTasks) Insert(ctx context.Context, draft TaskDraft) (*models.Task, error) {
	var task models.Task
	if err := t.g.do(ctx, http.MethodPost, "/tasks", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (t restTasks) Update(ctx context.Context, id string, fields map[string]any) (*models.Task, error) {
	var task models.Task
	if err := t.g.do(ctx, http.MethodPatch, "/tasks/"+id, fields, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (t restTasks) Delete(ctx context.Context, id string) error {
	return t.g.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}

type restDocuments struct{ g *RestGateway }

func (d restDocuments) ListForTask(ctx context.Context, taskID string) ([]models.TaskDocument, error) {
	var out struct {
		Documents []models.TaskDocument `json:"documents"`
	}
	if err := d.g.do(ctx, http.MethodGet, "/tasks/"+taskID+"/documents", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (d restDocuments) Insert(ctx context.Context, draft DocumentDraft) (*models.TaskDocument, error) {
	var doc models.TaskDocument
	if err := d.g.do(ctx, http.MethodPost, "/documents", draft, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d restDocuments) Delete(ctx context.Context, id string) error {
	return d.g.do(ctx, http.MethodDelete, "/documents/"+id, nil, nil)
}

type restHistory struct{ g *RestGateway }

func (h restHistory) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	var out struct {
		History []models.HistoryEntry `json:"history"`
	}
	path := "/history?limit=" + strconv.Itoa(limit)
	if err := h.g.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (h restHistory) Insert(ctx context.Context, draft HistoryDraft) error {
	return h.g.do(ctx, http.MethodPost, "/history", draft, nil)
}

type restProfiles struct{ g *RestGateway }

func (p restProfiles) List(ctx context.Context) ([]models.Profile, error) {
	var out struct {
		Profiles []models.Profile `json:"profiles"`
	}
	if err := p.g.do(ctx, http.MethodGet, "/profiles", nil, &out); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

func (p restProfiles) UpdateFullName(ctx context.Context, fullName string) (*models.Profile, error) {
	var profile models.Profile
	err := p.g.do(ctx, http.MethodPatch, "/profiles/me", map[string]string{
		"full_name": fullName,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type restStorage struct{ g *RestGateway }

func (s restStorage) Upload(ctx context.Context, key string, r io.Reader) error {
	req := s.g.http.R().SetContext(ctx).SetBody(r)
	resp, err := s.g.execute(req, http.MethodPut, "/storage/"+key)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("object upload failed: %s", resp.Status())
	}
	return nil
}

func (s restStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	req := s.g.http.R().SetContext(ctx).SetDoNotParseResponse(true)
	resp, err := s.g.execute(req, http.MethodGet, "/storage/"+key)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		resp.RawBody().Close()
		return nil, fmt.Errorf("object download failed: %s", resp.Status())
	}
	return resp.RawBody(), nil
}

func (s restStorage) Remove(ctx context.Context, key string) error {
	return s.g.do(ctx, http.MethodDelete, "/storage/"+key, nil, nil)
}

func (s restStorage) CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := s.g.do(ctx, http.MethodPost, "/storage-sign", map[string]any{
		"key":        key,
		"expires_in": int(ttl.Seconds()),
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// Subscribe opens the websocket change feed for one table. The subscription
// ends when Close is called, the context is cancelled, or the peer drops.
func (g *RestGateway) Subscribe(ctx context.Context, table, filter string) (Subscription, error) {
	wsURL, err := g.feedURL(table, filter)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{Jar: g.jar}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open change feed: %s", resp.Status)
		}
		return nil, fmt.Errorf("failed to open change feed: %w", err)
	}

	sub := &restSubscription{
		conn:   conn,
		events: make(chan realtime.Event, 16),
		closed: make(chan struct{}),
	}

	g.log.WithFields(logrus.Fields{"table": table, "filter": filter}).Debug("change feed opened")

	go func() {
		defer close(sub.events)
		for {
			var ev realtime.Event
			if err := conn.ReadJSON(&ev); err != nil {
				g.log.WithField("table", table).WithError(err).Debug("change feed closed")
				return
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cancelling the context tears the feed down as if Close were called
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closed:
		}
	}()

	return sub, nil
}

func (g *RestGateway) feedURL(table, filter string) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid gateway url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/realtime"

	q := u.Query()
	q.Set("table", table)
	if filter != "" {
		q.Set("filter", filter)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

type restSubscription struct {
	conn   *websocket.Conn
	events chan realtime.Event

	once   sync.Once
	closed chan struct{}
}

func (s *restSubscription) Events() <-chan realtime.Event {
	return s.events
}

// Close shuts the feed; closing twice is harmless.
func (s *restSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.conn.Close()
		close(s.closed)
	})
	return err
}
