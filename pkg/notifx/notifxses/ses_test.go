package notifxses

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSendEmail_BuildsInput(t *testing.T) {
	api := &fakeSES{}
	p := NewSESProvider(api, "no-reply@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"jane@example.com"},
		Subject:  "Welcome",
		HTMLBody: "<p>hi</p>",
	}, notifx.WithConfigID("intake"), notifx.WithTags(map[string]string{"kind": "welcome"}))
	if err != nil {
		t.Fatal(err)
	}

	in := api.input
	if aws.ToString(in.Source) != "no-reply@example.com" {
		t.Fatalf("unexpected source %q", aws.ToString(in.Source))
	}
	if in.Message.Body.Text != nil || aws.ToString(in.Message.Body.Html.Data) != "<p>hi</p>" {
		t.Fatalf("unexpected body %+v", in.Message.Body)
	}
	if aws.ToString(in.ConfigurationSetName) != "intake" || len(in.Tags) != 1 {
		t.Fatalf("options not applied: %+v", in)
	}
}

func TestSendEmail_WrapsFailure(t *testing.T) {
	p := NewSESProvider(&fakeSES{err: errors.New("throttled")}, "no-reply@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@example.com"}, Subject: "s"})
	if !errx.HasCode(err, ErrSendFailed) {
		t.Fatalf("expected send failed, got %v", err)
	}
}
