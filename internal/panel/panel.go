// Package panel runs a single IPPure query and renders its result.
package panel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akl7777777/ippure-info/internal/format"
	"github.com/akl7777777/ippure-info/internal/model"
	"github.com/akl7777777/ippure-info/internal/options"
)

const (
	Product              = "IPPure"
	NotificationCategory = "IPPure 网络信息"
	FailureTitle         = Product + " ❌"
)

// Runner performs one invocation per Run call. It holds no state
// between runs.
type Runner struct {
	fetcher  Fetcher
	notifier Notifier
	enricher Enricher
	logger   Logger
	sleep    func(ctx context.Context, d time.Duration)
}

// New creates a Runner. enricher may be nil.
func New(fetcher Fetcher, notifier Notifier, enricher Enricher, logger Logger) *Runner {
	return &Runner{
		fetcher:  fetcher,
		notifier: notifier,
		enricher: enricher,
		logger:   logger,
		sleep:    sleep,
	}
}

// Run parses argument, queries the API and hands exactly one result to
// completer. Query failures are rendered into the result; the only
// error returned is the completer's.
func (r *Runner) Run(ctx context.Context, argument string, completer Completer) error {
	opts := options.Parse(argument)
	r.logger.Debug("[panel] " + opts.String())

	if opts.Mode == options.ModeEvent && opts.EventDelay > 0 {
		r.logger.Debug(fmt.Sprintf("[panel] waiting %s for the network to settle", opts.EventDelay))
		r.sleep(ctx, opts.EventDelay)
	}

	var title, content string
	info, err := r.fetcher.FetchInfo(ctx, opts.Timeout)
	if err != nil {
		r.logger.Warn("[panel] query failed: " + err.Error())
		title = FailureTitle
		content = "查询失败: " + err.Error()
	} else {
		if r.enricher != nil {
			r.enricher.Enrich(&info)
		}
		title = buildTitle(info, opts)
		content = strings.Join(buildLines(info, opts), "\n")
	}

	if opts.Mode == options.ModeEvent {
		notification := model.Notification{
			Category: NotificationCategory,
			Title:    title,
			Content:  content,
		}
		if err := r.notifier.Notify(ctx, notification); err != nil {
			r.logger.Warn("[panel] posting notification: " + err.Error())
		}
	}

	result := model.Result{
		Title:     title,
		Content:   content,
		Icon:      opts.Icon,
		IconColor: opts.IconColor,
	}
	if err := completer.Complete(ctx, result); err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	return nil
}

func buildTitle(info model.InfoResponse, opts options.Options) string {
	ip := model.StringValue(info.IP)
	switch {
	case opts.Mask:
		ip = format.MaskIP(ip)
	case ip == "":
		ip = format.NotAvailable
	}

	if opts.Flag {
		if flag := format.CountryFlag(model.StringValue(info.CountryCode)); flag != "" {
			return flag + " " + ip
		}
	}
	return ip
}

func buildLines(info model.InfoResponse, opts options.Options) []string {
	lines := []string{"📍 " + location(info)}

	var asnParts []string
	if opts.ASN && info.ASN != nil && *info.ASN != 0 {
		asnParts = append(asnParts, fmt.Sprintf("AS%d", *info.ASN))
	}
	if org := model.StringValue(info.ASOrganization); opts.Org && org != "" {
		asnParts = append(asnParts, org)
	}
	if len(asnParts) > 0 {
		lines = append(lines, "🏢 "+strings.Join(asnParts, " · "))
	}

	if opts.Risk && info.FraudScore != nil {
		lines = append(lines, "🛡️ 风险: "+format.RiskLabel(info.FraudScore))
	}

	if opts.Geo {
		lines = append(lines, "🌐 "+coordinate(info.Latitude)+", "+coordinate(info.Longitude))
	}

	if opts.Residential {
		var tags []string
		if info.IsResidential != nil {
			if *info.IsResidential {
				tags = append(tags, "🏠 原生住宅 IP")
			} else {
				tags = append(tags, "🖥️ 非住宅 IP")
			}
		}
		if info.IsBroadcast != nil && *info.IsBroadcast {
			tags = append(tags, "📡 广播 IP")
		}
		if len(tags) > 0 {
			lines = append(lines, strings.Join(tags, " | "))
		}
	}

	return lines
}

func location(info model.InfoResponse) string {
	parts := make([]string, 0, 3)
	for _, part := range []*string{info.City, info.Region, info.Country} {
		if s := model.StringValue(part); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func coordinate(value *float64) string {
	if value == nil {
		return format.NotAvailable
	}
	return format.Number(*value)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
