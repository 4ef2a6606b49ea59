// Package ses delivers confirmation email through AWS SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	appconfig "github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/service/subscription"
)

const providerName = "ses"

const charset = "UTF-8"

// sendAPI is the slice of *sesv2.Client the notifier uses.
type sendAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier implements subscription.Notifier on SES.
type Notifier struct {
	api    sendAPI
	sender domain.SubscriberEmail
	cfg    appconfig.SESConfig
}

var _ subscription.Notifier = (*Notifier)(nil)

// NewNotifier builds an SES client from static credentials when both keys
// are set, otherwise from the default AWS credential chain.
func NewNotifier(ctx context.Context, cfg appconfig.SESConfig, senderEmail string) (*Notifier, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newNotifier(sesv2.NewFromConfig(awsCfg), cfg, senderEmail)
}

func newNotifier(api sendAPI, cfg appconfig.SESConfig, senderEmail string) (*Notifier, error) {
	sender, err := domain.ParseEmail(senderEmail)
	if err != nil {
		return nil, fmt.Errorf("ses sender: %w", err)
	}
	return &Notifier{api: api, sender: sender, cfg: cfg}, nil
}

// SendEmail sends one message with HTML and text parts.
func (n *Notifier) SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	if t := n.cfg.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender.String()),
		Destination:      &types.Destination{ToAddresses: []string{recipient.String()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String(charset)},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String(charset)},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("category"), Value: aws.String("subscription_confirmation")},
		},
	}

	// Retries belong to the caller.
	_, err := n.api.SendEmail(ctx, input, func(o *sesv2.Options) { o.RetryMaxAttempts = 1 })
	if err != nil {
		return &subscription.NotifierError{Provider: providerName, StatusCode: statusOf(err), Err: describe(err)}
	}
	return nil
}

// statusOf extracts the HTTP status from an SDK error, or 0.
func statusOf(err error) int {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}

// describe prefixes API errors with their SES error code.
func describe(err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return fmt.Errorf("%s: %w", ae.ErrorCode(), err)
	}
	return err
}
