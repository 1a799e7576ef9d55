package sns

import (
	"context"
	"fmt"

	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/config"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Sender delivers one-time codes as SMS via AWS SNS, for deployments whose
// identifiers are phone numbers. It implements otp.Sender.
type Sender struct {
	client *sns.Client
}

func NewSender(cfg *config.Config) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &Sender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *Sender) Send(ctx context.Context, msg otp.Message) error {
	text := fmt.Sprintf("Your one-time code is %s. It expires in 5 minutes.", msg.Code)
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &msg.Recipient,
		Message:     &text,
	})
	return err
}
