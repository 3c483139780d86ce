package exchange

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "crypto-quant-os/1.0 (+https://github.com/kathytingcheng-oss/crypto-quant-os)"

// newHTTPClient builds the client shared by the REST sources. The cookie jar
// keeps the load balancer affinity cookies some exchanges hand out.
func newHTTPClient(timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
		return client
	}
	client.Jar = jar
	return client
}
