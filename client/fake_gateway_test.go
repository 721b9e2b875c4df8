package client

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
)

// fakeGateway is an in-memory Gateway for store tests. Operations can be
// forced to fail by name, calls are recorded, and tests push change events
// into open subscriptions with push.
type fakeGateway struct {
	mu sync.Mutex

	tasks    []models.Task
	docs     []models.TaskDocument
	entries  []models.HistoryEntry
	profiles []models.Profile
	objects  map[string][]byte

	profile *models.Profile

	historyDrafts []HistoryDraft
	uploadedKeys  []string
	removedKeys   []string

	errs map[string]error
	subs []*fakeSubscription
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		objects: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

// fail forces the named operation to return err until cleared.
func (g *fakeGateway) fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[op] = err
}

func (g *fakeGateway) failure(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errs[op]
}

func (g *fakeGateway) seedTasks(tasks ...models.Task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, tasks...)
}

func (g *fakeGateway) seedDocs(docs ...models.TaskDocument) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs = append(g.docs, docs...)
}

// push delivers an event to every open subscription on the table whose
// filter matches.
func (g *fakeGateway) push(table string, ev realtime.Event) {
	g.mu.Lock()
	subs := make([]*fakeSubscription, 0, len(g.subs))
	for _, s := range g.subs {
		if s.table == table && s.matches(ev) {
			subs = append(subs, s)
		}
	}
	g.mu.Unlock()

	for _, s := range subs {
		s.deliver(ev)
	}
}

func (g *fakeGateway) Auth() AuthAPI          { return fakeAuth{g} }
func (g *fakeGateway) Tasks() TaskAPI         { return fakeTasks{g} }
func (g *fakeGateway) Documents() DocumentAPI { return fakeDocs{g} }
func (g *fakeGateway) History() HistoryAPI    { return fakeHistory{g} }
func (g *fakeGateway) Profiles() ProfileAPI   { return fakeProfiles{g} }
func (g *fakeGateway) Storage() ObjectStorage { return fakeStorage{g} }

func (g *fakeGateway) Subscribe(ctx context.Context, table, filter string) (Subscription, error) {
	if err := g.failure("subscribe"); err != nil {
		return nil, err
	}
	f, err := realtime.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	sub := &fakeSubscription{
		table:  table,
		filter: f,
		events: make(chan realtime.Event, 64),
	}
	g.mu.Lock()
	g.subs = append(g.subs, sub)
	g.mu.Unlock()
	return sub, nil
}

type fakeSubscription struct {
	table  string
	filter realtime.Filter
	events chan realtime.Event
	once   sync.Once
}

func (s *fakeSubscription) Events() <-chan realtime.Event { return s.events }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { close(s.events) })
	return nil
}

func (s *fakeSubscription) matches(ev realtime.Event) bool {
	return s.filter.Matches(ev)
}

func (s *fakeSubscription) deliver(ev realtime.Event) {
	defer func() { recover() }() // delivery to a closed subscription is dropped
	s.events <- ev
}

type fakeAuth struct{ g *fakeGateway }

func (a fakeAuth) SignUp(ctx context.Context, email, password, fullName string) (*models.Profile, error) {
	if err := a.g.failure("auth.signup"); err != nil {
		return nil, err
	}
	profile := &models.Profile{ID: uuid.NewString(), Email: email, FullName: &fullName}
	a.g.mu.Lock()
	a.g.profiles = append(a.g.profiles, *profile)
	a.g.profile = profile
	a.g.mu.Unlock()
	return profile, nil
}

func (a fakeAuth) SignIn(ctx context.Context, email, password string) (*models.Profile, error) {
	if err := a.g.failure("auth.signin"); err != nil {
		return nil, err
	}
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	if a.g.profile == nil {
		a.g.profile = &models.Profile{ID: uuid.NewString(), Email: email}
	}
	return a.g.profile, nil
}

func (a fakeAuth) SignOut(ctx context.Context) error {
	if err := a.g.failure("auth.signout"); err != nil {
		return err
	}
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	a.g.profile = nil
	return nil
}

func (a fakeAuth) CurrentProfile(ctx context.Context) (*models.Profile, error) {
	if err := a.g.failure("auth.me"); err != nil {
		return nil, err
	}
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	if a.g.profile == nil {
		return nil, io.EOF
	}
	return a.g.profile, nil
}

type fakeTasks struct{ g *fakeGateway }

func (t fakeTasks) List(ctx context.Context) ([]models.Task, error) {
	if err := t.g.failure("tasks.list"); err != nil {
		return nil, err
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	out := make([]models.Task, len(t.g.tasks))
	copy(out, t.g.tasks)
	return out, nil
}

func (t fakeTasks) Insert(ctx context.Context, draft TaskDraft) (*models.Task, error) {
	if err := t.g.failure("tasks.insert"); err != nil {
		return nil, err
	}
	task := models.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
		Status:      draft.Status,
		UserID:      draft.UserID,
		AssignedTo:  draft.AssignedTo,
		CreatedAt:   time.Now(),
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	t.g.mu.Lock()
	t.g.tasks = append(t.g.tasks, task)
	t.g.mu.Unlock()
	return &task, nil
}

func (t fakeTasks) Update(ctx context.Context, id string, fields map[string]any) (*models.Task, error) {
	if err := t.g.failure("tasks.update"); err != nil {
		return nil, err
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	for i := range t.g.tasks {
		if t.g.tasks[i].ID != id {
			continue
		}
		task := &t.g.tasks[i]
		for column, value := range fields {
			switch column {
			case "title":
				task.Title = value.(string)
			case "status":
				task.Status = models.TaskStatus(value.(string))
			case "priority":
				task.Priority = models.TaskPriority(value.(string))
			case "assigned_to":
				if value == nil {
					task.AssignedTo = nil
				} else {
					v := value.(string)
					task.AssignedTo = &v
				}
			}
		}
		task.UpdatedAt = time.Now()
		out := *task
		return &out, nil
	}
	return nil, io.EOF
}

func (t fakeTasks) Delete(ctx context.Context, id string) error {
	if err := t.g.failure("tasks.delete"); err != nil {
		return err
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	for i := range t.g.tasks {
		if t.g.tasks[i].ID == id {
			t.g.tasks = append(t.g.tasks[:i], t.g.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeDocs struct{ g *fakeGateway }

func (d fakeDocs) ListForTask(ctx context.Context, taskID string) ([]models.TaskDocument, error) {
	if err := d.g.failure("documents.list"); err != nil {
		return nil, err
	}
	d.g.mu.Lock()
	defer d.g.mu.Unlock()
	var out []models.TaskDocument
	for _, doc := range d.g.docs {
		if doc.TaskID == taskID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (d fakeDocs) Insert(ctx context.Context, draft DocumentDraft) (*models.TaskDocument, error) {
	if err := d.g.failure("documents.insert"); err != nil {
		return nil, err
	}
	doc := models.TaskDocument{
		ID:          uuid.NewString(),
		TaskID:      draft.TaskID,
		Name:        draft.Name,
		FilePath:    draft.FilePath,
		FileSize:    draft.FileSize,
		ContentType: draft.ContentType,
		CreatedAt:   time.Now(),
	}
	d.g.mu.Lock()
	d.g.docs = append(d.g.docs, doc)
	d.g.mu.Unlock()
	return &doc, nil
}

func (d fakeDocs) Delete(ctx context.Context, id string) error {
	if err := d.g.failure("documents.delete"); err != nil {
		return err
	}
	d.g.mu.Lock()
	defer d.g.mu.Unlock()
	for i := range d.g.docs {
		if d.g.docs[i].ID == id {
			d.g.docs = append(d.g.docs[:i], d.g.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeHistory struct{ g *fakeGateway }

func (h fakeHistory) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if err := h.g.failure("history.list"); err != nil {
		return nil, err
	}
	h.g.mu.Lock()
	defer h.g.mu.Unlock()
	out := make([]models.HistoryEntry, len(h.g.entries))
	copy(out, h.g.entries)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h fakeHistory) Insert(ctx context.Context, draft HistoryDraft) error {
	if err := h.g.failure("history.insert"); err != nil {
		return err
	}
	h.g.mu.Lock()
	defer h.g.mu.Unlock()
	h.g.historyDrafts = append(h.g.historyDrafts, draft)
	return nil
}

type fakeProfiles struct{ g *fakeGateway }

func (p fakeProfiles) List(ctx context.Context) ([]models.Profile, error) {
	if err := p.g.failure("profiles.list"); err != nil {
		return nil, err
	}
	p.g.mu.Lock()
	defer p.g.mu.Unlock()
	out := make([]models.Profile, len(p.g.profiles))
	copy(out, p.g.profiles)
	return out, nil
}

func (p fakeProfiles) UpdateFullName(ctx context.Context, fullName string) (*models.Profile, error) {
	if err := p.g.failure("profiles.update"); err != nil {
		return nil, err
	}
	p.g.mu.Lock()
	defer p.g.mu.Unlock()
	if p.g.profile == nil {
		return nil, io.EOF
	}
	p.g.profile.FullName = &fullName
	return p.g.profile, nil
}

type fakeStorage struct{ g *fakeGateway }

func (s fakeStorage) Upload(ctx context.Context, key string, r io.Reader) error {
	if err := s.g.failure("storage.upload"); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	s.g.objects[key] = data
	s.g.uploadedKeys = append(s.g.uploadedKeys, key)
	return nil
}

func (s fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := s.g.failure("storage.download"); err != nil {
		return nil, err
	}
	s.g.mu.Lock()
	data, ok := s.g.objects[key]
	s.g.mu.Unlock()
	if !ok {
		return nil, io.EOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s fakeStorage) Remove(ctx context.Context, key string) error {
	if err := s.g.failure("storage.remove"); err != nil {
		return err
	}
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	delete(s.g.objects, key)
	s.g.removedKeys = append(s.g.removedKeys, key)
	return nil
}

func (s fakeStorage) CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := s.g.failure("storage.sign"); err != nil {
		return "", err
	}
	return "https://example.test/signed/" + key, nil
}
