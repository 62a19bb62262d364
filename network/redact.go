package network

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/bitrise-io/go-utils/v2/log"
)

// signedQueryRe matches the query (and fragment) of an http(s) URL inside free text.
var signedQueryRe = regexp.MustCompile(`(https?://[^\s"'?#]*)[?#][^\s"']*`)

// redactURL drops the user info, query and fragment of a URL: signatures and tokens live there.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid URL>"
	}
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func redactText(s string) string {
	return signedQueryRe.ReplaceAllString(s, "$1")
}

// redactedError keeps the chain of err for errors.Is, but its message has no URL credentials.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string {
	return e.msg
}

func (e *redactedError) Unwrap() error {
	return e.err
}

// RedactError removes signed URL credentials (query, fragment, user info) from the message of err.
func RedactError(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.URL != redactURL(urlErr.URL) {
		redacted := &url.Error{Op: urlErr.Op, URL: redactURL(urlErr.URL), Err: urlErr.Err}
		if err == error(urlErr) {
			err = redacted
		} else {
			err = &redactedError{msg: redactText(err.Error()), err: redacted}
		}
	}

	if msg := redactText(err.Error()); msg != err.Error() {
		return &redactedError{msg: msg, err: err}
	}
	return err
}

// redactingLogAdaptor routes the HTTP client's request logs to the debug log, without URL credentials.
type redactingLogAdaptor struct {
	logger log.Logger
}

// Printf implements the retryablehttp.Logger interface
func (a *redactingLogAdaptor) Printf(format string, args ...interface{}) {
	a.logger.Debugf("%s", redactText(fmt.Sprintf(format, args...)))
}
