package creditrequestsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/creditrequest"
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
)

// Service implements creditrequest.Service.
type Service struct {
	repo creditrequest.Repository
	now  func() time.Time
}

var _ creditrequest.Service = (*Service)(nil)

func NewService(repo creditrequest.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create opens a credit request for requesterID in StatusCreated.
func (s *Service) Create(ctx context.Context, requesterID kernel.RequesterID, req creditrequest.CreateRequest) (*creditrequest.CreditRequest, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	entity := req.ToEntity(requesterID)
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"credit_request_id": entity.ID.String(),
		"requester_id":      requesterID.String(),
		"credit_type":       entity.CreditType,
	}).Info("Credit request created")
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id kernel.CreditRequestID) (*creditrequest.CreditRequest, error) {
	return s.repo.FindOne(ctx, creditrequest.Lookup{ID: id})
}

func (s *Service) ListByRequester(ctx context.Context, requesterID kernel.RequesterID, opts kernel.PaginationOptions) (kernel.Paginated[creditrequest.CreditRequest], error) {
	return s.repo.ListByRequester(ctx, requesterID, opts)
}

// ChangeStatus moves a request along the review graph. The actor's role
// must be allowed to set the target status, and a requester may only
// answer their own requests.
func (s *Service) ChangeStatus(ctx context.Context, id kernel.CreditRequestID, to creditrequest.Status, actor creditrequest.Actor) (*creditrequest.CreditRequest, error) {
	if !to.SettableBy(actor.Role) {
		return nil, creditrequest.ErrTransitionForbidden(to)
	}

	entity, err := s.repo.FindOne(ctx, creditrequest.Lookup{ID: id})
	if err != nil {
		return nil, err
	}

	// requesters see someone else's request as missing
	if strings.EqualFold(actor.Role, iam.RoleRequester) && entity.RequesterID != actor.RequesterID {
		return nil, creditrequest.ErrNotFound()
	}

	from := entity.Status
	if err := entity.MoveTo(to); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"credit_request_id": id.String(),
		"from":              from,
		"to":                to,
		"role":              actor.Role,
	}).Info("Credit request status changed")
	return entity, nil
}
