package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

var reportedHeaders = []string{
	"Content-Type",
	"Retry-After",
	"Server",
	"X-Cache",
	"X-Request-Id",
}

// DescribeFailure builds the one-line failure text shown in logs and in the
// digest. Response bodies and credentials are never included.
func DescribeFailure(feedURL string, err error, userAgent string) string {
	var httpErr *HTTPError
	var urlErr *url.Error

	details := []string{errorClass(err)}
	if message := err.Error(); message != "" {
		urls := []string{feedURL}
		if errors.As(err, &httpErr) {
			urls = append(urls, httpErr.URL)
		}
		if errors.As(err, &urlErr) {
			urls = append(urls, urlErr.URL)
		}
		details = append(details, scrubCredentials(message, urls...))
	}

	switch {
	case errors.As(err, &httpErr):
		details = append(details, fmt.Sprintf("status=%d %s", httpErr.StatusCode, httpErr.Reason()))
		if headers := summarizeHeaders(httpErr.Header); headers != "" {
			details = append(details, "headers="+headers)
		}
	case errors.As(err, &urlErr):
		if urlErr.Op != "" && urlErr.URL != "" {
			details = append(details, fmt.Sprintf("request=%s %s", strings.ToUpper(urlErr.Op), redactURL(urlErr.URL)))
		}
	}

	details = append(details, "ua="+userAgent)
	return fmt.Sprintf("%s (%s)", redactURL(feedURL), strings.Join(details, "; "))
}

func errorClass(err error) string {
	var httpErr *HTTPError
	var parseErr *ParseError
	var netErr net.Error
	var urlErr *url.Error

	switch {
	case errors.As(err, &httpErr):
		return "HTTPError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "Timeout"
	case errors.As(err, &urlErr):
		return "RequestError"
	default:
		return "Error"
	}
}

func summarizeHeaders(header http.Header) string {
	if len(header) == 0 {
		return ""
	}

	var parts []string
	for _, key := range reportedHeaders {
		if value := header.Get(key); value != "" {
			parts = append(parts, key+"="+value)
		}
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}

// redactURL drops userinfo so credentials embedded in feed URLs stay out of
// emails and logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// scrubCredentials removes the userinfo password of any of urls from an error
// message, whether it appears inside the full URL or on its own.
func scrubCredentials(message string, urls ...string) string {
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.User == nil {
			continue
		}
		message = strings.ReplaceAll(message, raw, u.Redacted())
		if password, ok := u.User.Password(); ok && password != "" {
			message = strings.ReplaceAll(message, password, "xxxxx")
		}
	}
	return message
}
