package notifx

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body,omitempty"`
	HTMLBody string   `json:"html_body,omitempty"`
}

// SendOptions are per-send provider settings.
type SendOptions struct {
	// Tags end up as SES message tags
	Tags map[string]string

	// ConfigID is the SES configuration set
	ConfigID string
}

type Option func(*SendOptions)

// WithTags merges tags into the send options. Later values win.
func WithTags(tags map[string]string) Option {
	return func(o *SendOptions) {
		for k, v := range tags {
			WithTag(k, v)(o)
		}
	}
}

// WithTag sets a single tag.
func WithTag(name, value string) Option {
	return func(o *SendOptions) {
		if o.Tags == nil {
			o.Tags = make(map[string]string)
		}
		o.Tags[name] = value
	}
}

func WithConfigID(id string) Option {
	return func(o *SendOptions) {
		o.ConfigID = id
	}
}

// ApplyOptions folds opts into a SendOptions. Providers call it.
func ApplyOptions(opts []Option) SendOptions {
	var so SendOptions
	for _, o := range opts {
		o(&so)
	}
	return so
}
