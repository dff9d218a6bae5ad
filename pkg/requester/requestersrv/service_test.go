package requestersrv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/kernel"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/ptrx"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
)

func TestRegisterSuccess(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Register(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if res.Email != "elena@example.com" || res.Sub != "sub-123" || res.ID.IsEmpty() {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := f.provider.created[0]; got.Username != "elena@example.com" || got.Name != "Elena Gomez" {
		t.Fatalf("unexpected identity %+v", got)
	}
	if len(f.provider.groups) != 1 || f.provider.groups[0] != DefaultRequesterGroup {
		t.Fatalf("groups = %v", f.provider.groups)
	}

	stored, err := f.repo.FindOne(context.Background(), requester.ByID(res.ID))
	if err != nil {
		t.Fatalf("stored row: %v", err)
	}
	if stored.Email != "elena@example.com" || stored.Sub != "sub-123" {
		t.Fatalf("stored %+v", stored)
	}

	welcome := f.jobs.ofType(JobWelcomeEmail)
	if len(welcome) != 1 || welcome[0].Queue != JobQueue {
		t.Fatalf("welcome jobs = %+v", welcome)
	}
	if len(f.provider.deleted) != 0 {
		t.Fatalf("no rollback expected, deleted %v", f.provider.deleted)
	}
}

func TestRegisterResolvesSubject(t *testing.T) {
	tests := []struct {
		name    string
		getUser *idp.User
		getErr  error
		wantSub string
	}{
		{"from lookup", &idp.User{Sub: "sub-from-get"}, nil, "sub-from-get"},
		{"lookup fails", nil, providerErr(idp.KindUserNotFound), ""},
		{"lookup empty", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.createSub = ""
			f.provider.getUser = tt.getUser
			f.provider.getUserErr = tt.getErr

			res, err := f.svc.Register(context.Background(), validCreate())
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if res.Sub != tt.wantSub {
				t.Fatalf("sub = %q, want %q", res.Sub, tt.wantSub)
			}
		})
	}
}

func TestRegisterLogsReasonWhenLookupReturnsNoUser(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := logx.DefaultConfig()
	cfg.Format = logx.FormatJSON
	cfg.Output = buf
	prev := logx.GetDefaultLogger()
	logx.SetDefaultLogger(logx.NewLogger(cfg))
	t.Cleanup(func() { logx.SetDefaultLogger(prev) })

	f := newFixture(t)
	f.provider.createSub = ""
	f.provider.getUser = nil
	f.provider.getUserErr = nil

	if _, err := f.svc.Register(context.Background(), validCreate()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var found map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]interface{}
		if json.Unmarshal(line, &entry) != nil {
			continue
		}
		if msg, _ := entry["message"].(string); strings.HasPrefix(msg, "Could not resolve identity subject") {
			found = entry
		}
	}
	if found == nil {
		t.Fatalf("expected a subject warning, got %s", buf.String())
	}
	if found["reason"] != "identity provider returned no user" {
		t.Fatalf("reason = %v", found["reason"])
	}
	if _, ok := found["error"]; ok {
		t.Fatalf("unexpected error field: %v", found["error"])
	}
}

func TestRegisterProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    *errx.ErrorCode
		message string
	}{
		{"username exists", providerErr(idp.KindUsernameExists), requester.CodeDuplicateIdentity, "User already exists"},
		{"weak password", providerErr(idp.KindInvalidPassword), requester.CodeWeakCredential, ""},
		{"other", providerErr(idp.KindLimitExceeded), requester.CodeIdentityProviderError, "LimitExceededException"},
		{"timeout", context.DeadlineExceeded, requester.CodeIdentityProviderError, "Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.createErr = tt.err

			_, err := f.svc.Register(context.Background(), validCreate())
			if !errx.HasCode(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code.Code)
			}
			var e *errx.Error
			if tt.message != "" && (!errors.As(err, &e) || e.Message != tt.message) {
				t.Fatalf("message = %v, want %q", err, tt.message)
			}
			if f.repo.writes != 0 {
				t.Fatalf("store writes = %d, want 0", f.repo.writes)
			}
			if len(f.provider.groups) != 0 || len(f.provider.deleted) != 0 {
				t.Fatal("no further provider calls expected")
			}
		})
	}
}

func TestRegisterGroupFailureIsNotRolledBack(t *testing.T) {
	f := newFixture(t)
	f.provider.groupErr = providerErr(idp.KindTooManyRequests)

	_, err := f.svc.Register(context.Background(), validCreate())
	if !errx.HasCode(err, requester.CodeIdentityProviderError) {
		t.Fatalf("err = %v", err)
	}
	if f.repo.writes != 0 || len(f.provider.deleted) != 0 {
		t.Fatalf("writes=%d deleted=%v", f.repo.writes, f.provider.deleted)
	}
}

func TestRegisterPersistenceFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errors.New("unique violation")

	_, err := f.svc.Register(context.Background(), validCreate())
	if !errx.HasCode(err, requester.CodePersistenceFailure) {
		t.Fatalf("err = %v, want persistence failure", err)
	}
	if errx.StatusOf(err) != 500 {
		t.Fatalf("status = %d", errx.StatusOf(err))
	}
	if len(f.provider.deleted) != 1 || f.provider.deleted[0] != f.provider.created[0].Username {
		t.Fatalf("deleted %v, created %v", f.provider.deleted, f.provider.created)
	}
	if len(f.jobs.jobs) != 0 {
		t.Fatalf("no jobs expected, got %+v", f.jobs.jobs)
	}
}

func TestRegisterFailedRollbackSchedulesReconciliation(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = errors.New("connection refused")
	f.provider.deleteErr = providerErr(idp.KindTooManyRequests)

	_, err := f.svc.Register(context.Background(), validCreate())
	if !errx.HasCode(err, requester.CodePersistenceFailure) {
		t.Fatalf("compensation must not replace the error, got %v", err)
	}

	jobs := f.jobs.ofType(JobDeleteIdentity)
	if len(jobs) != 1 {
		t.Fatalf("reconciliation jobs = %d, want 1", len(jobs))
	}
	var p deleteIdentityPayload
	if err := json.Unmarshal(jobs[0].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Username != "elena@example.com" {
		t.Fatalf("payload username = %q", p.Username)
	}
}

func TestRegisterRollbackWithoutJobClient(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.repo, f.provider, f.files, nil, "requester", 0)
	f.repo.createErr = errors.New("boom")
	f.provider.deleteErr = providerErr(idp.KindUnknown)

	_, err := f.svc.Register(context.Background(), validCreate())
	if !errx.HasCode(err, requester.CodePersistenceFailure) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t)
	req := validCreate()
	req.CURP = "nope"

	_, err := f.svc.Register(context.Background(), req)
	if !errx.HasCode(err, requester.CodeInvalidPayload) {
		t.Fatalf("err = %v", err)
	}
	if len(f.provider.created) != 0 {
		t.Fatal("provider must not be called")
	}
}

func register(t *testing.T, f *fixture) kernel.RequesterID {
	t.Helper()
	res, err := f.svc.Register(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res.ID
}

func TestGetAndGetBySub(t *testing.T) {
	f := newFixture(t)
	id := register(t, f)

	view, err := f.svc.Get(context.Background(), id)
	if err != nil || view.ID != id {
		t.Fatalf("Get = %+v, %v", view, err)
	}

	view, err = f.svc.GetBySub(context.Background(), "sub-123")
	if err != nil || view.ID != id {
		t.Fatalf("GetBySub = %+v, %v", view, err)
	}

	if _, err := f.svc.GetBySub(context.Background(), ""); !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("empty sub: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), kernel.NewRequesterID()); !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("missing id: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	id := register(t, f)

	address := "Calle 5, Monterrey"
	view, err := f.svc.Update(context.Background(), id, requester.UpdateRequest{Address: &address})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if view.Address != address || view.Email != "elena@example.com" {
		t.Fatalf("view %+v", view)
	}

	_, err = f.svc.Update(context.Background(), id, requester.UpdateRequest{CountChildren: ptrx.Int(-1)})
	if !errx.HasCode(err, requester.CodeInvalidPayload) {
		t.Fatalf("err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	id := register(t, f)

	_, err := f.svc.UploadDocument(context.Background(), id, requester.DocumentUpload{
		Kind: requester.DocumentINE, Filename: "ine.pdf", Size: 3, Body: strings.NewReader("pdf"),
	})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if err := f.svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.repo.FindOne(context.Background(), requester.ByID(id)); !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatal("row should be gone")
	}
	if len(f.provider.deleted) != 1 || f.provider.deleted[0] != "elena@example.com" {
		t.Fatalf("deleted %v", f.provider.deleted)
	}
	exists, err := f.files.Exists(context.Background(), "requesters/"+id.String())
	if err != nil || exists {
		t.Fatalf("documents left behind: %v %v", exists, err)
	}

	if err := f.svc.Delete(context.Background(), id); !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDeleteSchedulesIdentityCleanup(t *testing.T) {
	f := newFixture(t)
	id := register(t, f)
	f.provider.deleteErr = providerErr(idp.KindTooManyRequests)

	if err := f.svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete must succeed once the row is gone: %v", err)
	}
	if got := f.jobs.ofType(JobDeleteIdentity); len(got) != 1 {
		t.Fatalf("reconciliation jobs = %d", len(got))
	}
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	id := register(t, f)

	view, err := f.svc.UploadDocument(context.Background(), id, requester.DocumentUpload{
		Kind:     requester.DocumentDomicile,
		Filename: "../../recibo.PNG",
		Size:     5,
		Body:     strings.NewReader("image"),
	})
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if !view.HasDomicile || view.HasINE {
		t.Fatalf("flags %+v", view)
	}

	exists, err := f.files.Exists(context.Background(), "requesters/"+id.String()+"/domicile/recibo.PNG")
	if err != nil || !exists {
		t.Fatalf("document not stored: %v %v", exists, err)
	}

	_, err = f.svc.UploadDocument(context.Background(), id, requester.DocumentUpload{
		Kind: "passport", Filename: "p.pdf", Size: 1, Body: strings.NewReader("x"),
	})
	if !errx.HasCode(err, requester.CodeInvalidDocument) {
		t.Fatalf("err = %v", err)
	}

	_, err = f.svc.UploadDocument(context.Background(), kernel.NewRequesterID(), requester.DocumentUpload{
		Kind: requester.DocumentINE, Filename: "ine.pdf", Size: 1, Body: strings.NewReader("x"),
	})
	if !errx.HasCode(err, requester.CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}
