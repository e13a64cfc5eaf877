package s3

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fakePageSize keeps listings short so pagination is exercised.
const fakePageSize = 2

// NewFake returns a Store talking to an in-process fake S3 endpoint. It
// understands the subset of the API the store uses: HEAD, GET, PUT, DELETE
// and ListObjectsV2.
func NewFake() *Store {
	st, err := New(context.Background(), Config{
		Bucket:          "horizon-test",
		Region:          defaultRegion,
		Endpoint:        "https://fake.s3.local",
		AccessKeyID:     "AKIAFAKE",
		SecretAccessKey: "secret",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: &fakeS3{objects: make(map[string]fakeObject)}},
	})
	if err != nil {
		panic(fmt.Sprintf("fake s3: %v", err))
	}
	return st
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    http.Header
	modified    time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req), nil
	case req.Method == http.MethodPut:
		return f.put(req, key)
	case req.Method == http.MethodHead, req.Method == http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return fakeResponse(http.StatusNotFound, nil, nil), nil
		}
		h := http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {`"` + etag(obj.body) + `"`},
			"Last-Modified":  {obj.modified.Format(http.TimeFormat)},
		}
		for k, v := range obj.metadata {
			h[k] = v
		}
		if req.Method == http.MethodHead {
			return fakeResponse(http.StatusOK, h, nil), nil
		}
		return fakeResponse(http.StatusOK, h, obj.body), nil
	case req.Method == http.MethodDelete:
		delete(f.objects, key)
		return fakeResponse(http.StatusNoContent, nil, nil), nil
	}
	return fakeResponse(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeS3) put(req *http.Request, key string) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
		if body, err = decodeAWSChunked(body); err != nil {
			return fakeResponse(http.StatusBadRequest, nil, nil), nil
		}
	}
	md := http.Header{}
	for k, v := range req.Header {
		if strings.HasPrefix(strings.ToLower(k), "x-amz-meta-") {
			md[k] = v
		}
	}
	f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), metadata: md, modified: time.Now().UTC()}
	return fakeResponse(http.StatusOK, http.Header{"Etag": {`"` + etag(body) + `"`}}, nil), nil
}

func (f *fakeS3) list(req *http.Request) *http.Response {
	q := req.URL.Query()
	prefix := q.Get("prefix")
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start, _ := strconv.Atoi(q.Get("continuation-token"))
	if start > len(keys) {
		start = len(keys)
	}
	end := min(start+fakePageSize, len(keys))
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult>`)
	if end < len(keys) {
		fmt.Fprintf(&b, "<IsTruncated>true</IsTruncated><NextContinuationToken>%d</NextContinuationToken>", end)
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
	}
	for _, k := range keys[start:end] {
		obj := f.objects[k]
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><ETag>&quot;%s&quot;</ETag><LastModified>%s</LastModified></Contents>",
			k, len(obj.body), etag(obj.body), obj.modified.Format(time.RFC3339))
	}
	b.WriteString("</ListBucketResult>")
	return fakeResponse(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(b.String()))
}

func fakeResponse(status int, h http.Header, body []byte) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body))}
}

func etag(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// decodeAWSChunked strips the aws-chunked framing the SDK uses when it
// streams a trailing checksum: `<hex size>[;ext]\r\n<data>\r\n` repeated,
// terminated by a zero sized chunk and optional trailers.
func decodeAWSChunked(b []byte) ([]byte, error) {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeField, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		n, err := strconv.ParseInt(sizeField, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size %q: %w", sizeField, err)
		}
		if n == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, r, n); err != nil {
			return nil, err
		}
		if _, err := r.Discard(2); err != nil {
			return nil, err
		}
	}
}
