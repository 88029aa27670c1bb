// Package notify posts event mode notifications.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"

	"github.com/akl7777777/ippure-info/internal/model"
)

var ErrSend = errors.New("sending notification")

type sender interface {
	Send(message string, params *types.Params) []error
}

// Shoutrrr sends notifications to every configured shoutrrr URL.
type Shoutrrr struct {
	sender sender
}

func NewShoutrrr(urls []string) (*Shoutrrr, error) {
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("creating shoutrrr sender: %w", err)
	}
	return &Shoutrrr{sender: sender}, nil
}

// Notify sends the title and content as the message body and uses the
// category as the service title.
func (s *Shoutrrr) Notify(ctx context.Context, notification model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := notification.Title
	if notification.Content != "" {
		message += "\n" + notification.Content
	}
	params := types.Params{"title": notification.Category}

	var errs []error
	for _, err := range s.sender.Send(message, &params) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSend, errors.Join(errs...))
	}
	return nil
}
