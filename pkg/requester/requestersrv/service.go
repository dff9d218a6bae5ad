package requestersrv

import (
	"context"
	"path"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/asyncx"
	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/fsx"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/jobx"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
)

const (
	DefaultCallTimeout    = 10 * time.Second
	DefaultRequesterGroup = "requester"

	documentsRoot = "requesters"
)

// Service implements requester.Service. Registration creates the identity
// first and the local row second, undoing the identity when the row cannot
// be written.
type Service struct {
	repo        requester.Repository
	provider    idp.Provider
	files       fsx.FileSystem
	jobs        jobx.JobEnqueuer
	group       string
	callTimeout time.Duration
}

var _ requester.Service = (*Service)(nil)

// NewService wires the requester use cases. jobs may be nil, in which case
// failed compensations are only logged.
func NewService(
	repo requester.Repository,
	provider idp.Provider,
	files fsx.FileSystem,
	jobs jobx.JobEnqueuer,
	group string,
	callTimeout time.Duration,
) *Service {
	if group == "" {
		group = DefaultRequesterGroup
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Service{
		repo:        repo,
		provider:    provider,
		files:       files,
		jobs:        jobs,
		group:       group,
		callTimeout: callTimeout,
	}
}

// ============================================================================
// Registration
// ============================================================================

// Register provisions the identity, assigns the requester group and stores
// the profile. A store failure deletes the identity again.
func (s *Service) Register(ctx context.Context, req requester.CreateRequest) (*requester.RegisterResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	username := idp.NormalizeUsername(req.Email)
	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"operation": "register",
		"email":     username,
	})

	var created *idp.CreateUserOutput
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.provider.CreateUser(ctx, idp.CreateUserInput{
			Username: username,
			Password: req.Password,
			Name:     req.Firstname + " " + req.Lastname,
		})
		return err
	})
	if err != nil {
		log.WithError(err).Warn("Identity creation failed")
		return nil, classify(err)
	}

	if err := s.call(ctx, func(ctx context.Context) error {
		return s.provider.AddUserToGroup(ctx, username, s.group)
	}); err != nil {
		log.WithError(err).WithField("group", s.group).Error("Group assignment failed, partially provisioned identity")
		return nil, classify(err)
	}

	sub := ""
	if created != nil {
		sub = created.Sub
	}
	if sub == "" {
		sub = s.lookupSub(ctx, username)
	}

	entity := req.ToEntity(username, sub)
	if err := s.repo.Create(ctx, entity); err != nil {
		log.WithError(err).Error("Could not store requester, rolling back identity")
		s.compensate(ctx, username)
		return nil, requester.ErrPersistenceFailure(err)
	}

	s.enqueue(ctx, JobWelcomeEmail, welcomeEmailPayload{
		Email: entity.Email,
		Name:  entity.FullName(),
	})

	log.WithField("requester_id", entity.ID.String()).Info("Requester registered")
	return &requester.RegisterResult{
		ID:    entity.ID,
		Sub:   sub,
		Email: entity.Email,
	}, nil
}

func (s *Service) lookupSub(ctx context.Context, username string) string {
	var user *idp.User
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.provider.GetUser(ctx, username)
		return err
	})
	if err != nil {
		logx.WithContext(ctx).WithError(err).Warn("Could not resolve identity subject, storing without it")
		return ""
	}
	if user == nil {
		logx.WithContext(ctx).WithField("reason", "identity provider returned no user").Warn("Could not resolve identity subject, storing without it")
		return ""
	}
	return user.Sub
}

// compensate deletes the identity created by a failed registration. It
// never changes the error the caller sees.
func (s *Service) compensate(ctx context.Context, username string) {
	ctx = context.WithoutCancel(ctx)

	err := s.call(ctx, func(ctx context.Context) error {
		return s.provider.DeleteUser(ctx, username)
	})
	if err == nil || idp.KindOf(err) == idp.KindUserNotFound {
		return
	}

	logx.WithContext(ctx).WithError(err).WithField("email", username).
		Error("Rollback of identity failed, scheduling reconciliation")
	s.enqueue(ctx, JobDeleteIdentity, deleteIdentityPayload{Username: username})
}

func classify(err error) error {
	switch idp.KindOf(err) {
	case idp.KindUsernameExists:
		return requester.ErrDuplicateIdentity().WithCause(err)
	case idp.KindInvalidPassword:
		return requester.ErrWeakCredential().WithCause(err)
	default:
		return requester.ErrIdentityProvider(idp.NameOf(err)).WithCause(err)
	}
}

// ============================================================================
// Profile operations
// ============================================================================

func (s *Service) Get(ctx context.Context, id kernel.RequesterID) (*requester.View, error) {
	entity, err := s.repo.FindOne(ctx, requester.ByID(id))
	if err != nil {
		return nil, err
	}
	return requester.NewView(entity), nil
}

// GetBySub resolves the requester owning an identity provider subject.
func (s *Service) GetBySub(ctx context.Context, sub string) (*requester.View, error) {
	if sub == "" {
		return nil, requester.ErrNotFound()
	}
	entity, err := s.repo.FindOne(ctx, requester.BySub(sub))
	if err != nil {
		return nil, err
	}
	return requester.NewView(entity), nil
}

func (s *Service) Update(ctx context.Context, id kernel.RequesterID, req requester.UpdateRequest) (*requester.View, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entity, err := s.repo.FindOne(ctx, requester.ByID(id))
	if err != nil {
		return nil, err
	}

	req.Apply(entity)
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithField("requester_id", id.String()).Info("Requester updated")
	return requester.NewView(entity), nil
}

// Delete removes the row, its documents and the identity. Only the row
// deletion can fail the call.
func (s *Service) Delete(ctx context.Context, id kernel.RequesterID) error {
	entity, err := s.repo.FindOne(ctx, requester.ByID(id))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, requester.ByID(id)); err != nil {
		return err
	}

	log := logx.WithContext(ctx).WithField("requester_id", id.String())
	ctx = context.WithoutCancel(ctx)

	errs := asyncx.Settle(ctx,
		func(ctx context.Context) error {
			return s.files.DeleteDir(ctx, s.files.Join(documentsRoot, id.String()))
		},
		func(ctx context.Context) error {
			return s.call(ctx, func(ctx context.Context) error {
				return s.provider.DeleteUser(ctx, entity.Email)
			})
		},
	)

	if err := errs[0]; err != nil {
		log.WithError(err).Warn("Could not remove requester documents")
	}
	if err := errs[1]; err != nil && idp.KindOf(err) != idp.KindUserNotFound {
		log.WithError(err).Error("Identity delete failed, scheduling reconciliation")
		s.enqueue(ctx, JobDeleteIdentity, deleteIdentityPayload{Username: entity.Email})
	}

	log.Info("Requester deleted")
	return nil
}

// UploadDocument stores a KYC file under requesters/<id>/<kind>/ and marks
// the document as delivered.
func (s *Service) UploadDocument(ctx context.Context, id kernel.RequesterID, doc requester.DocumentUpload) (*requester.View, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	entity, err := s.repo.FindOne(ctx, requester.ByID(id))
	if err != nil {
		return nil, err
	}

	name := path.Base(doc.Filename)
	target := s.files.Join(documentsRoot, id.String(), string(doc.Kind), name)

	contentType := doc.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = fsx.ContentTypeByExt(path.Ext(name))
	}

	if err := s.files.WriteFileStream(ctx, target, doc.Body, contentType); err != nil {
		logx.WithContext(ctx).WithError(err).WithField("path", target).Error("Document upload failed")
		if errx.HasCode(err, fsx.CodeInvalidPath) {
			return nil, requester.ErrInvalidDocument("Invalid document name")
		}
		return nil, requester.ErrDocumentUploadFailed(err)
	}

	entity.MarkDocument(doc.Kind)
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"requester_id": id.String(),
		"kind":         doc.Kind,
	}).Info("Requester document stored")
	return requester.NewView(entity), nil
}

// ============================================================================
// Helpers
// ============================================================================

// call bounds one identity provider call by callTimeout.
func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	return asyncx.Timeout(ctx, s.callTimeout, fn)
}

func (s *Service) enqueue(ctx context.Context, jobType string, payload interface{}) {
	if s.jobs == nil {
		return
	}

	log := logx.WithContext(ctx).WithField("job_type", jobType)

	job, err := jobx.NewJob(jobType, JobQueue, payload)
	if err != nil {
		log.WithError(err).Error("Could not build job")
		return
	}
	if _, err := s.jobs.Enqueue(ctx, job); err != nil {
		log.WithError(err).Error("Could not enqueue job")
	}
}
