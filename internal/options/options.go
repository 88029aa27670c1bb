// Package options parses the host argument string into run options.
package options

import (
	"strconv"
	"strings"
	"time"

	"github.com/qdm12/gotree"
)

// Mode selects how the result is delivered.
type Mode string

const (
	ModePanel Mode = "PANEL"
	ModeEvent Mode = "EVENT"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultEventDelay = 3 * time.Second
	DefaultIcon       = "globe.asia.australia"
	DefaultIconColor  = "#6699FF"
)

// Options controls which sections are rendered and how the run behaves.
type Options struct {
	Mode        Mode
	Flag        bool
	ASN         bool
	Org         bool
	Risk        bool
	Residential bool
	Geo         bool
	Mask        bool
	Timeout     time.Duration
	Icon        string
	IconColor   string
	EventDelay  time.Duration
}

// Default returns the options used when the argument string is empty.
func Default() Options {
	return Options{
		Mode:        ModePanel,
		Flag:        true,
		ASN:         true,
		Org:         true,
		Risk:        true,
		Residential: true,
		Geo:         true,
		Mask:        false,
		Timeout:     DefaultTimeout,
		Icon:        DefaultIcon,
		IconColor:   DefaultIconColor,
		EventDelay:  DefaultEventDelay,
	}
}

// Parse turns a KEY=VALUE&KEY=VALUE string into Options.
// Malformed or unknown entries are ignored; every field falls back
// to its default.
func Parse(raw string) Options {
	params := split(raw)
	o := Default()

	if params["TYPE"] == string(ModeEvent) {
		o.Mode = ModeEvent
	}
	o.Flag = params["FLAG"] != "0"
	o.ASN = params["ASN"] != "0"
	o.Org = params["ORG"] != "0"
	o.Risk = params["RISK"] != "0"
	o.Residential = params["RESIDENTIAL"] != "0"
	o.Geo = params["GEO"] != "0"
	o.Mask = params["MASK"] == "1"

	if n, ok := leadingInt(params["TIMEOUT"]); ok && n > 0 {
		o.Timeout = time.Duration(n) * time.Second
	}
	if v := params["ICON"]; v != "" {
		o.Icon = v
	}
	if v := params["ICON_COLOR"]; v != "" {
		o.IconColor = v
	}
	if n, ok := leadingInt(params["EVENT_DELAY"]); ok && n >= 0 {
		o.EventDelay = time.Duration(n) * time.Second
	}

	return o
}

// leadingInt parses the optionally signed decimal digits at the start
// of s and ignores the rest, so "5s" is 5 and "3.5" is 3.
func leadingInt(s string) (n int, ok bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil { // out of range
		return 0, false
	}
	return n, true
}

// split only splits each pair on its first '=' so values may contain '='.
func split(raw string) map[string]string {
	params := make(map[string]string)
	if raw == "" {
		return params
	}
	for _, pair := range strings.Split(raw, "&") {
		key, value, _ := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		params[key] = strings.TrimSpace(value)
	}
	return params
}

func (o Options) String() string {
	return o.toLinesNode().String()
}

func (o Options) toLinesNode() *gotree.Node {
	node := gotree.New("Options:")
	node.Appendf("Mode: %s", o.Mode)
	sections := node.Appendf("Sections:")
	sections.Appendf("Flag: %s", onOff(o.Flag))
	sections.Appendf("ASN: %s", onOff(o.ASN))
	sections.Appendf("Organization: %s", onOff(o.Org))
	sections.Appendf("Risk: %s", onOff(o.Risk))
	sections.Appendf("Residential: %s", onOff(o.Residential))
	sections.Appendf("Geo: %s", onOff(o.Geo))
	node.Appendf("Mask IP: %s", onOff(o.Mask))
	node.Appendf("Timeout: %s", o.Timeout)
	if o.Mode == ModeEvent {
		node.Appendf("Event delay: %s", o.EventDelay)
	}
	node.Appendf("Icon: %s (%s)", o.Icon, o.IconColor)
	return node
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
