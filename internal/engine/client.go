package engine

import (
	"net/http/cookiejar"
	"time"

	"scraperpro/lib/restyutil"
	"scraperpro/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

var restyOutput restyutil.CaptureOutput

// SetRestyInstrumentOutput captures every outbound exchange to the
// given output, for debugging scrapes against misbehaving sites.
func SetRestyInstrumentOutput(output restyutil.CaptureOutput) {
	restyOutput = output
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	UserAgent      string `json:"user_agent"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
}

// NewHttpClient builds the outbound client used for page fetches:
// cookie jar, cloudflare bypass transport, bounded retries and otel
// instrumentation.
func NewHttpClient(opts ClientOptions) (*resty.Client, error) {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	timeout := opts.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	client.SetTimeout(time.Duration(timeout) * time.Second)

	if opts.MaxRetries > 0 {
		client.SetRetryCount(opts.MaxRetries)
		client.SetRetryWaitTime(time.Second)
	}

	telemetry.InstrumentResty(client, "engine/http")
	if restyOutput != nil {
		restyutil.CaptureExchanges(client, restyOutput)
	}
	return client, nil
}
