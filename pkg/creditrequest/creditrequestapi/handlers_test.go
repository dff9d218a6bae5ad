package creditrequestapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abraxas-365/credit-intake/pkg/creditrequest"
	"github.com/Abraxas-365/credit-intake/pkg/iam"
	"github.com/Abraxas-365/credit-intake/pkg/iam/token"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
	"github.com/Abraxas-365/credit-intake/pkg/respx"
	"github.com/gofiber/fiber/v2"
)

const (
	ownerID   = kernel.RequesterID("7d4f2c1e-2b1a-4f0e-8e55-0c9d1b2a3f44")
	requestID = "5a9b3e2d-1c4f-4d7a-9b8e-2f6c1d0e3a55"
)

type fakeService struct {
	gotRequester kernel.RequesterID
	gotCreate    creditrequest.CreateRequest
	gotOpts      kernel.PaginationOptions
	gotStatus    creditrequest.Status
	gotActor     creditrequest.Actor
	err          error
}

func (f *fakeService) Create(_ context.Context, requesterID kernel.RequesterID, req creditrequest.CreateRequest) (*creditrequest.CreditRequest, error) {
	f.gotRequester, f.gotCreate = requesterID, req
	if f.err != nil {
		return nil, f.err
	}
	return req.ToEntity(requesterID), nil
}

func (f *fakeService) Get(_ context.Context, id kernel.CreditRequestID) (*creditrequest.CreditRequest, error) {
	return &creditrequest.CreditRequest{ID: id, Status: creditrequest.StatusCreated}, f.err
}

func (f *fakeService) ListByRequester(_ context.Context, requesterID kernel.RequesterID, opts kernel.PaginationOptions) (kernel.Paginated[creditrequest.CreditRequest], error) {
	f.gotRequester, f.gotOpts = requesterID, opts
	return kernel.NewPaginated[creditrequest.CreditRequest](nil, opts.Page, opts.PageSize, 0), f.err
}

func (f *fakeService) ChangeStatus(_ context.Context, id kernel.CreditRequestID, to creditrequest.Status, actor creditrequest.Actor) (*creditrequest.CreditRequest, error) {
	f.gotStatus, f.gotActor = to, actor
	if f.err != nil {
		return nil, f.err
	}
	return &creditrequest.CreditRequest{ID: id, Status: to}, nil
}

type resolver struct{}

func (resolver) GetBySub(_ context.Context, sub string) (*requester.View, error) {
	if sub != "sub-owner" {
		return nil, requester.ErrNotFound()
	}
	return &requester.View{ID: ownerID}, nil
}

type tokens map[string]*kernel.Principal

func (t tokens) Validate(_ context.Context, raw string) (*kernel.Principal, error) {
	if p, ok := t[raw]; ok {
		return p, nil
	}
	return nil, token.ErrInvalidSignatureOrClaims()
}

var principals = tokens{
	"owner":      {ID: "sub-owner", Role: iam.RoleRequester},
	"analyst":    {ID: "sub-analyst", Role: iam.RoleAnalyst},
	"supervisor": {ID: "sub-sup", Role: iam.RoleSupervisor},
	"guest":      {ID: "sub-guest", Role: "default"},
}

func newApp(svc creditrequest.Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: respx.ErrorHandler})
	NewHandlers(svc, resolver{}).RegisterRoutes(app, token.NewMiddleware(principals).Authenticate())
	return app
}

func do(t *testing.T, app *fiber.App, method, path, bearer, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var env map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, env
}

func TestCreateForCaller(t *testing.T) {
	svc := &fakeService{}
	body := `{"credit_type":"mortgage","termination_date":"2030-06-01","amount":"150000.25","has_guarantee":true,"guarantee_value":200000}`

	resp, env := do(t, newApp(svc), http.MethodPost, "/request", "owner", body)
	if resp.StatusCode != http.StatusCreated || env["message"] != msgCreated {
		t.Fatalf("status %d, envelope %v", resp.StatusCode, env)
	}
	if svc.gotRequester != ownerID {
		t.Fatalf("requester = %q", svc.gotRequester)
	}
	if svc.gotCreate.Amount != kernel.Money(15000025) || svc.gotCreate.TerminationDate.String() != "2030-06-01" {
		t.Fatalf("create %+v", svc.gotCreate)
	}
	data := env["data"].(map[string]interface{})
	if data["status"] != "created" || data["amount"] != 150000.25 {
		t.Fatalf("data %v", data)
	}
}

func TestListOwnPagination(t *testing.T) {
	svc := &fakeService{}
	resp, env := do(t, newApp(svc), http.MethodGet, "/request?page=2&page_size=5", "owner", "")
	if resp.StatusCode != http.StatusOK || env["message"] != msgListed {
		t.Fatalf("status %d, envelope %v", resp.StatusCode, env)
	}
	if svc.gotOpts.Page != 2 || svc.gotOpts.PageSize != 5 || svc.gotRequester != ownerID {
		t.Fatalf("opts %+v requester %q", svc.gotOpts, svc.gotRequester)
	}
}

func TestRouteRoles(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   string
		want   int
	}{
		{"list as analyst", http.MethodGet, "/request", "analyst", "", http.StatusForbidden},
		{"list without token", http.MethodGet, "/request", "", "", http.StatusUnauthorized},
		{"get as analyst", http.MethodGet, "/request/" + requestID, "analyst", "", http.StatusOK},
		{"get as owner", http.MethodGet, "/request/" + requestID, "owner", "", http.StatusForbidden},
		{"get bad id", http.MethodGet, "/request/abc", "supervisor", "", http.StatusBadRequest},
		{"status as guest", http.MethodPatch, "/request/" + requestID + "/status", "guest", `{"status":"in_review"}`, http.StatusForbidden},
		{"status unknown value", http.MethodPatch, "/request/" + requestID + "/status", "analyst", `{"status":"done"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, newApp(&fakeService{}), tt.method, tt.path, tt.bearer, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("status %d, want %d (%v)", resp.StatusCode, tt.want, env["message"])
			}
		})
	}
}

func TestChangeStatusActors(t *testing.T) {
	svc := &fakeService{}
	app := newApp(svc)

	resp, _ := do(t, app, http.MethodPatch, "/request/"+requestID+"/status", "supervisor", `{"status":"approved"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if svc.gotActor.Role != iam.RoleSupervisor || svc.gotActor.RequesterID != "" || svc.gotStatus != creditrequest.StatusApproved {
		t.Fatalf("actor %+v status %s", svc.gotActor, svc.gotStatus)
	}

	resp, _ = do(t, app, http.MethodPatch, "/request/"+requestID+"/status", "owner", `{"status":"accepted"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if svc.gotActor.RequesterID != ownerID {
		t.Fatalf("actor %+v", svc.gotActor)
	}
}

func TestChangeStatusConflict(t *testing.T) {
	svc := &fakeService{err: creditrequest.ErrInvalidTransition(creditrequest.StatusCreated, creditrequest.StatusCompleted)}
	resp, env := do(t, newApp(svc), http.MethodPatch, "/request/"+requestID+"/status", "analyst", `{"status":"completed"}`)
	if resp.StatusCode != http.StatusConflict || env["action"] != "CANCEL" {
		t.Fatalf("status %d, envelope %v", resp.StatusCode, env)
	}
}
