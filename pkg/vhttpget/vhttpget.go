// Package vhttpget fetches small documents such as an offline page template over HTTP(S).
package vhttpget

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

type Option interface {
	Set(o *Opts)
}

type Opts struct {
	Header map[string]string
}

func (o Opts) Set(another *Opts) {
	if another.Header == nil {
		another.Header = map[string]string{}
	}
	for k, v := range o.Header {
		another.Header[k] = v
	}
}

// Header adds a request header.
func Header(k, v string) Option {
	return Opts{Header: map[string]string{k: v}}
}

type Getter interface {
	DoRequest(url string, opt ...Option) (string, error)
}

type getter struct {
	responseBodyFor func(url string, opts Opts) (io.ReadCloser, error)
}

func New() Getter {
	return NewWithClient(&http.Client{Timeout: DefaultTimeout})
}

func NewWithClient(client *http.Client) Getter {
	return &getter{
		responseBodyFor: func(url string, opts Opts) (io.ReadCloser, error) {
			req, err := http.NewRequest(http.MethodGet, url, &bytes.Buffer{})
			if err != nil {
				return nil, err
			}

			req.Header.Set("User-Agent", "webdeploy")

			for k, v := range opts.Header {
				req.Header.Set(k, v)
			}

			res, err := client.Do(req)
			if err != nil {
				return nil, err
			}

			if res.StatusCode < 200 || res.StatusCode >= 300 {
				defer res.Body.Close()
				body, _ := ioutil.ReadAll(io.LimitReader(res.Body, 512))
				snippet := string(body)
				if len(snippet) > 0 {
					return nil, fmt.Errorf("GET %s: %s: %s", url, res.Status, snippet)
				}
				return nil, fmt.Errorf("GET %s: %s", url, res.Status)
			}

			return res.Body, nil
		},
	}
}

func NewTester(expectations map[string]string) Getter {
	return &getter{
		responseBodyFor: func(url string, opts Opts) (io.ReadCloser, error) {
			res, ok := expectations[url]
			if !ok {
				return nil, fmt.Errorf("unexpected input: url=%v, opts=%v", url, opts)
			}
			r := ioutil.NopCloser(bytes.NewReader([]byte(res)))
			return r, nil
		},
	}
}

func (t *getter) DoRequest(url string, opt ...Option) (string, error) {
	opts := &Opts{}
	for _, o := range opt {
		o.Set(opts)
	}

	res, err := t.responseBodyFor(url, *opts)
	if err != nil {
		return "", err
	}
	defer res.Close()

	bytes, err := ioutil.ReadAll(res)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	return string(bytes), nil
}
