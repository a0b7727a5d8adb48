package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const SMSChannelName = "sms"

type smsResponse struct {
	Result string `json:"result"`
}

// SMSClient submits form-encoded messages to the SMS gateway. A 200 only
// counts as delivered when the gateway answers {"result":"OK"}; any other
// result is the gateway refusing load and is reported as transient.
type SMSClient struct {
	client *resty.Client
}

func NewSMSClient(baseURL string, creds Credentials, timeout time.Duration) *SMSClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(creds.Username, creds.Password)
	return &SMSClient{client: c}
}

func (s *SMSClient) Name() string { return SMSChannelName }

func (s *SMSClient) Send(ctx context.Context, recipient, body string) Outcome {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("phone", recipient).
		SetFormData(map[string]string{"message": body}).
		Post("/sms")
	if err != nil {
		logger.Warn("sms request failed", zap.String("phone", recipient), zap.Error(err))
		return TransientFailure
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
		var out smsResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil || out.Result != "OK" {
			logger.Warn("sms gateway returned non-OK result",
				zap.String("phone", recipient), zap.ByteString("body", resp.Body()))
			return TransientFailure
		}
		return Delivered
	case code == http.StatusBadRequest || code == http.StatusUnauthorized:
		return RecipientRejected
	case code >= http.StatusInternalServerError:
		return TransientFailure
	default:
		logger.Warn("sms unexpected status", zap.String("phone", recipient), zap.Int("status", code))
		return Unexpected
	}
}
