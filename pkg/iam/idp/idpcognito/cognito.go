// Package idpcognito implements idp.Provider on an AWS Cognito user pool.
package idpcognito

import (
	"context"
	"errors"

	"github.com/Abraxas-365/credit-intake/pkg/iam/idp"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

// API is the subset of *cognitoidentityprovider.Client used by the adapter.
type API interface {
	AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, in *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	AdminGetUser(ctx context.Context, in *cip.AdminGetUserInput, optFns ...func(*cip.Options)) (*cip.AdminGetUserOutput, error)
	AdminDeleteUser(ctx context.Context, in *cip.AdminDeleteUserInput, optFns ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
}

var _ API = (*cip.Client)(nil)

// Provider talks to one user pool through one app client.
type Provider struct {
	api        API
	userPoolID string
	clientID   string
}

var _ idp.Provider = (*Provider)(nil)

func NewProvider(api API, userPoolID, clientID string) *Provider {
	return &Provider{
		api:        api,
		userPoolID: userPoolID,
		clientID:   clientID,
	}
}

// CreateUser runs AdminCreateUser with the invitation message suppressed and
// then sets the password as permanent. When the password is rejected the
// half-created user is removed so the username can be reused.
func (p *Provider) CreateUser(ctx context.Context, in idp.CreateUserInput) (*idp.CreateUserOutput, error) {
	attrs := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(in.Username)},
		{Name: aws.String("email_verified"), Value: aws.String("true")},
		{Name: aws.String("name"), Value: aws.String(in.Name)},
	}
	for k, v := range in.Attributes {
		attrs = append(attrs, types.AttributeType{Name: aws.String(k), Value: aws.String(v)})
	}

	created, err := p.api.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId:     aws.String(p.userPoolID),
		Username:       aws.String(in.Username),
		MessageAction:  types.MessageActionTypeSuppress,
		UserAttributes: attrs,
	})
	if err != nil {
		return nil, classify(ctx, "AdminCreateUser", err)
	}

	_, err = p.api.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(in.Username),
		Password:   aws.String(in.Password),
		Permanent:  true,
	})
	if err != nil {
		setErr := classify(ctx, "AdminSetUserPassword", err)
		if delErr := p.DeleteUser(context.WithoutCancel(ctx), in.Username); delErr != nil {
			logx.WithError(delErr).
				WithField("operation", "AdminSetUserPassword").
				Warn("Could not remove identity after password was rejected")
		}
		return nil, setErr
	}

	out := &idp.CreateUserOutput{}
	if created != nil && created.User != nil {
		out.Sub = attribute(created.User.Attributes, "sub")
	}
	return out, nil
}

func (p *Provider) AddUserToGroup(ctx context.Context, username, group string) error {
	_, err := p.api.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	return classify(ctx, "AdminAddUserToGroup", err)
}

func (p *Provider) GetUser(ctx context.Context, username string) (*idp.User, error) {
	out, err := p.api.AdminGetUser(ctx, &cip.AdminGetUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return nil, classify(ctx, "AdminGetUser", err)
	}

	user := &idp.User{
		Username:   aws.ToString(out.Username),
		Enabled:    out.Enabled,
		Attributes: make(map[string]string, len(out.UserAttributes)),
	}
	for _, a := range out.UserAttributes {
		user.Attributes[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}
	user.Sub = user.Attributes["sub"]
	return user, nil
}

func (p *Provider) DeleteUser(ctx context.Context, username string) error {
	_, err := p.api.AdminDeleteUser(ctx, &cip.AdminDeleteUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	return classify(ctx, "AdminDeleteUser", err)
}

func (p *Provider) InitiatePasswordAuth(ctx context.Context, username, password string) (*idp.AuthTokens, error) {
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, classify(ctx, "InitiateAuth", err)
	}
	return toTokens(out), nil
}

func (p *Provider) RefreshTokens(ctx context.Context, refreshToken string) (*idp.AuthTokens, error) {
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		return nil, classify(ctx, "InitiateAuth", err)
	}
	return toTokens(out), nil
}

func (p *Provider) ForgotPassword(ctx context.Context, username string) (*idp.CodeDelivery, error) {
	out, err := p.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(username),
	})
	if err != nil {
		return nil, classify(ctx, "ForgotPassword", err)
	}
	if out == nil || out.CodeDeliveryDetails == nil {
		return nil, nil
	}
	d := out.CodeDeliveryDetails
	return &idp.CodeDelivery{
		DeliveryMedium: string(d.DeliveryMedium),
		Destination:    aws.ToString(d.Destination),
		AttributeName:  aws.ToString(d.AttributeName),
	}, nil
}

func (p *Provider) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	_, err := p.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	return classify(ctx, "ConfirmForgotPassword", err)
}

// ============================================================================
// Mapping
// ============================================================================

func toTokens(out *cip.InitiateAuthOutput) *idp.AuthTokens {
	if out == nil {
		return nil
	}
	if out.ChallengeName != "" {
		return &idp.AuthTokens{ChallengeName: string(out.ChallengeName)}
	}
	res := out.AuthenticationResult
	if res == nil {
		return nil
	}
	return &idp.AuthTokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
		TokenType:    aws.ToString(res.TokenType),
	}
}

func attribute(attrs []types.AttributeType, name string) string {
	for _, a := range attrs {
		if aws.ToString(a.Name) == name {
			return aws.ToString(a.Value)
		}
	}
	return ""
}

var knownKinds = map[string]idp.Kind{
	"UsernameExistsException":   idp.KindUsernameExists,
	"InvalidPasswordException":  idp.KindInvalidPassword,
	"NotAuthorizedException":    idp.KindNotAuthorized,
	"UserNotFoundException":     idp.KindUserNotFound,
	"ExpiredCodeException":      idp.KindExpiredCode,
	"CodeMismatchException":     idp.KindCodeMismatch,
	"InvalidParameterException": idp.KindInvalidParam,
	"LimitExceededException":    idp.KindLimitExceeded,
	"TooManyRequestsException":  idp.KindTooManyRequests,
}

// classify is the only place Cognito error names are inspected.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var code string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	kind, ok := knownKinds[code]
	switch {
	case ok:
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = idp.KindTimeout
	default:
		kind = idp.KindUnknown
	}

	return &idp.Error{Op: op, Kind: kind, Code: code, Err: err}
}
