// Package ippure queries the IPPure info API.
package ippure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/akl7777777/ippure-info/internal/model"
)

const (
	DefaultEndpoint  = "https://my.ippure.com/v1/info"
	DefaultUserAgent = "Surge/IPPure-Info"

	snippetLength = 100
	maxBodySize   = 1 << 20
)

var (
	ErrTransport = errors.New("request failed")
	ErrParse     = errors.New("JSON 解析失败")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Logger interface {
	Debug(s string)
	Warn(s string)
}

// Client issues a single GET per FetchInfo call. It never retries.
type Client struct {
	client    *http.Client
	endpoint  string
	userAgent string
	logger    Logger
}

func New(client *http.Client, endpoint, userAgent string, logger Logger) *Client {
	return &Client{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchInfo fetches and decodes the info document. The whole exchange,
// body included, is bounded by timeout. Errors wrap ErrTransport or ErrParse.
func (c *Client) FetchInfo(ctx context.Context, timeout time.Duration) (
	info model.InfoResponse, err error,
) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return info, fmt.Errorf("%w: creating request: %w", ErrTransport, err)
	}
	request.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return info, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize))
	if err != nil {
		return info, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	c.logger.Debug(fmt.Sprintf("[fetch] %s → %d, %s in %s",
		c.endpoint, response.StatusCode, humanize.Bytes(uint64(len(body))),
		time.Since(start).Round(time.Millisecond)))
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		c.logger.Warn(fmt.Sprintf("[fetch] %s returned HTTP %d", c.endpoint, response.StatusCode))
	}

	info, err = decodeInfo(body)
	if err != nil {
		return model.InfoResponse{}, fmt.Errorf("%w: %s", ErrParse, snippet(body))
	}
	return info, nil
}

// decodeInfo only fails if body is not a JSON object or null.
// A field of an unexpected type is converted when possible,
// and left absent otherwise.
func decodeInfo(body []byte) (info model.InfoResponse, err error) {
	var fields map[string]jsoniter.RawMessage
	err = json.Unmarshal(body, &fields)
	if err != nil {
		return info, err
	}

	info.IP = stringField(fields["ip"])
	info.CountryCode = stringField(fields["countryCode"])
	info.Country = stringField(fields["country"])
	info.Region = stringField(fields["region"])
	info.City = stringField(fields["city"])
	info.ASN = intField(fields["asn"])
	info.ASOrganization = stringField(fields["asOrganization"])
	info.FraudScore = floatField(fields["fraudScore"])
	info.Latitude = floatField(fields["latitude"])
	info.Longitude = floatField(fields["longitude"])
	info.IsResidential = boolField(fields["isResidential"])
	info.IsBroadcast = boolField(fields["isBroadcast"])
	return info, nil
}

func stringField(raw jsoniter.RawMessage) *string {
	if raw == nil {
		return nil
	}
	value := jsoniter.Get(raw)
	switch value.ValueType() {
	case jsoniter.StringValue, jsoniter.NumberValue:
		s := value.ToString()
		return &s
	default:
		return nil
	}
}

func floatField(raw jsoniter.RawMessage) *float64 {
	if raw == nil {
		return nil
	}
	value := jsoniter.Get(raw)
	var f float64
	switch value.ValueType() {
	case jsoniter.NumberValue:
		f = value.ToFloat64()
	case jsoniter.StringValue:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(value.ToString()), 64)
		if err != nil {
			return nil
		}
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// intField accepts integral numbers only, so 14061.0 is 14061
// but 14061.5 is absent.
func intField(raw jsoniter.RawMessage) *int64 {
	f := floatField(raw)
	if f == nil || *f != math.Trunc(*f) ||
		*f < math.MinInt64 || *f >= math.MaxInt64 {
		return nil
	}
	n := int64(*f)
	return &n
}

func boolField(raw jsoniter.RawMessage) *bool {
	if raw == nil {
		return nil
	}
	value := jsoniter.Get(raw)
	var b bool
	switch value.ValueType() {
	case jsoniter.BoolValue:
		b = value.ToBool()
	case jsoniter.NumberValue:
		b = value.ToFloat64() != 0
	case jsoniter.StringValue:
		var err error
		b, err = strconv.ParseBool(strings.TrimSpace(value.ToString()))
		if err != nil {
			return nil
		}
	default:
		return nil
	}
	return &b
}

func snippet(body []byte) string {
	s := string(body)
	if utf8.RuneCountInString(s) <= snippetLength {
		return s
	}
	return string([]rune(s)[:snippetLength])
}
