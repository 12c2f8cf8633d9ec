package proxy

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

// hop-by-hop headers are not forwarded
var hopHeaders = []string{"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization", "Te", "Trailer", "Transfer-Encoding", "Upgrade"}

// Proxy forwards gin requests to upstream services.
type Proxy struct {
	client *http.Client
	log    *logger.Logger
}

func New(log *logger.Logger) *Proxy {
	return &Proxy{
		client: &http.Client{
			Timeout: 60 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log.With("component", "proxy"),
	}
}

// To creates a Gin handler that proxies requests to target. Path
// parameters written as :name in target are filled from the route.
func (p *Proxy) To(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		url := target
		for _, param := range c.Params {
			url = strings.ReplaceAll(url, ":"+param.Key, param.Value)
		}
		// Preserve original query string when proxying
		if c.Request.URL.RawQuery != "" {
			if strings.Contains(url, "?") {
				url += "&" + c.Request.URL.RawQuery
			} else {
				url += "?" + c.Request.URL.RawQuery
			}
		}

		var body io.Reader
		if c.Request.ContentLength != 0 {
			body = c.Request.Body
		}
		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, url, body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "proxy request error"})
			return
		}
		req.ContentLength = c.Request.ContentLength
		req.Header = c.Request.Header.Clone()
		for _, h := range hopHeaders {
			req.Header.Del(h)
		}
		req.Header.Set("X-Forwarded-For", c.ClientIP())

		resp, err := p.client.Do(req)
		if err != nil {
			p.log.With("target", url).Err(err, "upstream unavailable")
			c.JSON(http.StatusBadGateway, gin.H{"error": "service unavailable"})
			return
		}
		defer resp.Body.Close()

		for k, v := range resp.Header {
			for _, vv := range v {
				c.Writer.Header().Add(k, vv)
			}
		}
		c.Writer.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(c.Writer, resp.Body)
	}
}
