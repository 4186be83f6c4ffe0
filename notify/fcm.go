package notify

import (
	"context"
	"fmt"

	"github.com/appleboy/go-fcm"
	"k8s.io/klog/v2"
)

// FCM accepts at most this many registration ids per message
const maxRegistrationIDs = 1000

// sender is satisfied by *fcm.Client
type sender interface {
	Send(msg *fcm.Message) (*fcm.Response, error)
}

type FcmNotifier struct {
	Client sender
}

func NewFcmNotifier(apiKey string) (*FcmNotifier, error) {
	client, err := fcm.NewClient(apiKey)
	if err != nil {
		return nil, err
	}
	return &FcmNotifier{Client: client}, nil
}

func (n *FcmNotifier) SendToMany(ctx context.Context, tokens []string, title string, body string, data map[string]string) (*Outcome, error) {
	outcome := &Outcome{}
	payload := make(map[string]interface{}, len(data))
	for k, v := range data {
		payload[k] = v
	}

	for start := 0; start < len(tokens); start += maxRegistrationIDs {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		end := start + maxRegistrationIDs
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		msg := &fcm.Message{
			RegistrationIDs: batch,
			Priority:        "high",
			Data:            payload,
			Notification: &fcm.Notification{
				Title: title,
				Body:  body,
				Sound: "default",
			},
		}
		resp, err := n.Client.Send(msg)
		if err != nil {
			return outcome, fmt.Errorf("fcm send failed after %d of %d tokens: %w", start, len(tokens), err)
		}
		outcome.Success += resp.Success
		outcome.Failure += resp.Failure
		// results are in the same order as the registration ids
		for i, result := range resp.Results {
			if i < len(batch) && result.Unregistered() {
				outcome.InvalidTokens = append(outcome.InvalidTokens, batch[i])
			}
		}
		klog.V(3).Infof("FCM batch of %d: %d success, %d failure", len(batch), resp.Success, resp.Failure)
	}
	return outcome, nil
}
