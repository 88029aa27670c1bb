package panel

import (
	"context"
	"time"

	"github.com/akl7777777/ippure-info/internal/model"
)

//go:generate mockgen -destination=mocks_test.go -package=$GOPACKAGE . Fetcher,Notifier,Completer,Logger

type Fetcher interface {
	FetchInfo(ctx context.Context, timeout time.Duration) (info model.InfoResponse, err error)
}

type Notifier interface {
	Notify(ctx context.Context, notification model.Notification) error
}

// Completer receives the result record ending a run.
type Completer interface {
	Complete(ctx context.Context, result model.Result) error
}

// Enricher may fill fields missing from a fetched document.
type Enricher interface {
	Enrich(info *model.InfoResponse)
}

type Logger interface {
	Debug(s string)
	Warn(s string)
}
