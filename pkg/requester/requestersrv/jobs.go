package requestersrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/asyncx"
	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/jobx"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/notifx"
	"github.com/Abraxas-365/credit-intake/pkg/requester"
)

const (
	JobQueue          = "requester"
	JobDeleteIdentity = "requester.identity.delete"
	JobWelcomeEmail   = "requester.welcome_email"

	WelcomeTemplate = "requester.welcome"
)

const welcomeTemplate = `<p>Hello {{.Name}},</p>
<p>Your account is ready. You can now sign in and submit your credit request.</p>
<p>Remember to upload your INE, birth certificate, proof of domicile and guarantee documents.</p>`

type deleteIdentityPayload struct {
	Username string `json:"username"`
}

type welcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandlerRegistry is satisfied by *jobx.Client.
type HandlerRegistry interface {
	Register(jobType string, handler jobx.HandlerFunc)
}

// TemplateRegistry is satisfied by *notifx.Client.
type TemplateRegistry interface {
	RegisterTemplate(name, tmplString string) error
}

// RegisterTemplates adds the requester email templates to r.
func RegisterTemplates(r TemplateRegistry) error {
	return r.RegisterTemplate(WelcomeTemplate, welcomeTemplate)
}

// Jobs runs the background work scheduled by Service.
type Jobs struct {
	repo        requester.Repository
	provider    idp.Provider
	notifier    notifx.Notifier
	callTimeout time.Duration
}

func NewJobs(repo requester.Repository, provider idp.Provider, notifier notifx.Notifier, callTimeout time.Duration) *Jobs {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Jobs{
		repo:        repo,
		provider:    provider,
		notifier:    notifier,
		callTimeout: callTimeout,
	}
}

// Register installs the handlers. Welcome emails are skipped without a
// notifier.
func (j *Jobs) Register(r HandlerRegistry) {
	r.Register(JobDeleteIdentity, j.DeleteIdentity)
	if j.notifier != nil {
		r.Register(JobWelcomeEmail, j.WelcomeEmail)
	}
}

// DeleteIdentity retries an identity delete that failed inline. An identity
// that a stored requester points at again is left alone.
func (j *Jobs) DeleteIdentity(ctx context.Context, job *jobx.JobInfo) error {
	var p deleteIdentityPayload
	if err := job.Decode(&p); err != nil {
		return err
	}

	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"job_id": job.ID,
		"email":  p.Username,
	})

	_, err := j.repo.FindOne(ctx, requester.ByEmail(p.Username))
	switch {
	case err == nil:
		log.Info("Identity is owned by a stored requester, skipping delete")
		return nil
	case !errx.HasCode(err, requester.CodeNotFound):
		return err
	}

	err = asyncx.Timeout(ctx, j.callTimeout, func(ctx context.Context) error {
		return j.provider.DeleteUser(ctx, p.Username)
	})
	if err != nil {
		if idp.KindOf(err) == idp.KindUserNotFound {
			return nil
		}
		log.WithError(err).Warn("Identity delete failed, will retry")
		return err
	}

	log.Info("Orphaned identity deleted")
	return nil
}

func (j *Jobs) WelcomeEmail(ctx context.Context, job *jobx.JobInfo) error {
	var p welcomeEmailPayload
	if err := job.Decode(&p); err != nil {
		return err
	}

	return j.notifier.SendTemplatedEmail(ctx, WelcomeTemplate, p, notifx.EmailMessage{
		To:      []string{p.Email},
		Subject: "Welcome",
	}, notifx.WithTags(map[string]string{"type": "welcome"}))
}
