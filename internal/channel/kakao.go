package channel

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const KakaoChannelName = "kakaotalk"

type kakaoRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// KakaoClient posts JSON messages to the KakaoTalk relay.
type KakaoClient struct {
	client *resty.Client
}

func NewKakaoClient(baseURL string, creds Credentials, timeout time.Duration) *KakaoClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetBasicAuth(creds.Username, creds.Password).
		SetHeader("Content-Type", "application/json")
	return &KakaoClient{client: c}
}

func (k *KakaoClient) Name() string { return KakaoChannelName }

func (k *KakaoClient) Send(ctx context.Context, recipient, body string) Outcome {
	resp, err := k.client.R().
		SetContext(ctx).
		SetBody(kakaoRequest{Phone: recipient, Message: body}).
		Post("/kakaotalk-messages")
	if err != nil {
		logger.Warn("kakaotalk request failed", zap.String("phone", recipient), zap.Error(err))
		return TransientFailure
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
		return Delivered
	case code == http.StatusBadRequest || code == http.StatusUnauthorized:
		return RecipientRejected
	case code >= http.StatusInternalServerError:
		return TransientFailure
	default:
		logger.Warn("kakaotalk unexpected status", zap.String("phone", recipient), zap.Int("status", code))
		return Unexpected
	}
}
