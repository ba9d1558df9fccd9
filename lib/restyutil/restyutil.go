package restyutil

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// CaptureOutput receives a rendered HTTP exchange per request id.
type CaptureOutput interface {
	Write(id string, contents string)
}

// FilesystemOutput dumps captured exchanges into a directory, one file
// per request. The directory is recreated on construction.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write captured exchange", "id", id, "err", err)
	}
}

// CaptureExchanges records the full request and response of every call
// made by client into output. Intended for debugging selectors against
// live pages; a nil output makes this a no-op.
func CaptureExchanges(client *resty.Client, output CaptureOutput) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprint(atomic.AddUint64(&idcounter, 1))
		output.Write(id, formatExchange(res))
		return nil
	})
}

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for k, vals := range headers {
		for _, v := range vals {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatExchange(res *resty.Response) string {
	req := res.Request
	return fmt.Sprintf(`---- REQUEST ----

%s %s

%s

---- RESPONSE ----

%s

%s

%s`,
		req.Method, req.URL,
		formatHeaders(req.Header),
		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
