package requestersrv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/jobx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
)

// fakeProvider implements the provider calls the requester flows make.
type fakeProvider struct {
	idp.Provider

	mu         sync.Mutex
	createSub  string
	createErr  error
	groupErr   error
	getUser    *idp.User
	getUserErr error
	deleteErr  error

	created []idp.CreateUserInput
	groups  []string
	deleted []string
}

func (f *fakeProvider) CreateUser(_ context.Context, in idp.CreateUserInput) (*idp.CreateUserOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &idp.CreateUserOutput{Sub: f.createSub}, nil
}

func (f *fakeProvider) AddUserToGroup(_ context.Context, _, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, group)
	return f.groupErr
}

func (f *fakeProvider) GetUser(_ context.Context, _ string) (*idp.User, error) {
	return f.getUser, f.getUserErr
}

func (f *fakeProvider) DeleteUser(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, username)
	return f.deleteErr
}

func providerErr(kind idp.Kind) error {
	return &idp.Error{Op: "test", Kind: kind, Code: string(kind), Err: errors.New(string(kind))}
}

// memRepo is an in-memory requester.Repository.
type memRepo struct {
	mu        sync.Mutex
	rows      map[kernel.RequesterID]requester.Requester
	createErr error
	writes    int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[kernel.RequesterID]requester.Requester)}
}

func (m *memRepo) Create(_ context.Context, e *requester.Requester) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[e.ID] = *e
	return nil
}

func (m *memRepo) FindOne(_ context.Context, f requester.Lookup) (*requester.Requester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if (f.ID != "" && r.ID == f.ID) || (f.Sub != "" && r.Sub == f.Sub) || (f.Email != "" && r.Email == f.Email) {
			found := r
			return &found, nil
		}
	}
	return nil, requester.ErrNotFound()
}

func (m *memRepo) Update(_ context.Context, e *requester.Requester) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[e.ID]; !ok {
		return requester.ErrNotFound()
	}
	m.writes++
	m.rows[e.ID] = *e
	return nil
}

func (m *memRepo) Delete(_ context.Context, f requester.Lookup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[f.ID]; !ok {
		return requester.ErrNotFound()
	}
	m.writes++
	delete(m.rows, f.ID)
	return nil
}

// recordingJobs captures enqueued jobs.
type recordingJobs struct {
	mu   sync.Mutex
	jobs []jobx.Job
}

func (r *recordingJobs) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return "job-1", nil
}

func (r *recordingJobs) EnqueueDelayed(ctx context.Context, job jobx.Job, _ time.Duration) (string, error) {
	return r.Enqueue(ctx, job)
}

func (r *recordingJobs) ofType(jobType string) []jobx.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []jobx.Job
	for _, j := range r.jobs {
		if j.Type == jobType {
			out = append(out, j)
		}
	}
	return out
}

func jobInfo(t *testing.T, job jobx.Job) *jobx.JobInfo {
	t.Helper()
	return &jobx.JobInfo{ID: "job-1", Type: job.Type, Queue: job.Queue, Payload: job.Payload}
}

type fixture struct {
	svc      *Service
	provider *fakeProvider
	repo     *memRepo
	jobs     *recordingJobs
	files    *fsxlocal.LocalFileSystem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	files, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	if err != nil {
		t.Fatalf("local fs: %v", err)
	}
	f := &fixture{
		provider: &fakeProvider{createSub: "sub-123"},
		repo:     newMemRepo(),
		jobs:     &recordingJobs{},
		files:    files,
	}
	f.svc = NewService(f.repo, f.provider, f.files, f.jobs, "", time.Second)
	return f
}

func validCreate() requester.CreateRequest {
	return requester.CreateRequest{
		CURP:               "GODE561231HDFRRN09",
		RFC:                "GODE561231GR8",
		Firstname:          "Elena",
		Lastname:           "Gomez",
		MonthlyIncome:      kernel.MoneyFromDecimal(25000.50),
		Email:              "  Elena@Example.com ",
		Password:           "Secret1!",
		Address:            "Av. Reforma 1, CDMX",
		Gender:             requester.GenderFemale,
		CountChildren:      1,
		CountAdults:        2,
		CountFamilyMembers: 3,
		CivilStatus:        "married",
		EducationLevel:     "bachelor",
		OccupationType:     2,
		DaysEmployed:       730,
		Birthdate:          kernel.NewDate(1956, time.December, 31),
	}
}
