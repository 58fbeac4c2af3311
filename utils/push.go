package utils

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Expo accepts at most this many messages per request.
const expoChunkSize = 100

// PushMessage is one Expo push notification
type PushMessage struct {
	To        string            `json:"to"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	Priority  string            `json:"priority,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
}

// PushTicket is Expo's per-message receipt
type PushTicket struct {
	ID      string                 `json:"id,omitempty"`
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type expoResponse struct {
	Data   []PushTicket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// PushGateway sends push notifications to devices.
type PushGateway interface {
	Send(ctx context.Context, messages []PushMessage) ([]PushTicket, error)
}

// IsExpoPushToken reports whether token has the Expo token shape.
func IsExpoPushToken(token string) bool {
	if !strings.HasSuffix(token, "]") {
		return false
	}
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// ExpoClient posts messages to the Expo push API
type ExpoClient struct {
	client *resty.Client
	url    string
}

func NewExpoClient(url, accessToken string) *ExpoClient {
	client := resty.New().
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "gzip, deflate").
		SetHeader("Content-Type", "application/json")
	if accessToken != "" {
		client.SetAuthToken(accessToken)
	}
	return &ExpoClient{client: client, url: url}
}

// Send drops malformed tokens and posts the rest in chunks of 100.
func (e *ExpoClient) Send(ctx context.Context, messages []PushMessage) ([]PushTicket, error) {
	valid := make([]PushMessage, 0, len(messages))
	for _, m := range messages {
		if IsExpoPushToken(m.To) {
			if m.Sound == "" {
				m.Sound = "default"
			}
			if m.Priority == "" {
				m.Priority = "high"
			}
			valid = append(valid, m)
		}
	}

	var tickets []PushTicket
	for start := 0; start < len(valid); start += expoChunkSize {
		end := start + expoChunkSize
		if end > len(valid) {
			end = len(valid)
		}

		var out expoResponse
		resp, err := e.client.R().
			SetContext(ctx).
			SetBody(valid[start:end]).
			SetResult(&out).
			Post(e.url)
		if err != nil {
			return tickets, errors.Wrap(err, "expo push request")
		}
		if resp.StatusCode() != 200 {
			return tickets, errors.Errorf("expo push failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
		}
		if len(out.Errors) > 0 {
			return tickets, errors.Errorf("expo push error %s: %s", out.Errors[0].Code, out.Errors[0].Message)
		}
		tickets = append(tickets, out.Data...)
	}
	return tickets, nil
}
