package store_test

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

// fakeS3 answers path style object requests for a single bucket from memory.
type fakeS3 struct {
	bucket  string
	objects map[string][]byte
	mutex   sync.Mutex
}

func newFakeS3Server(bucket string) (*httptest.Server, *fakeS3) {
	fake := &fakeS3{
		bucket:  bucket,
		objects: map[string][]byte{},
	}

	return httptest.NewServer(fake), fake
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2" &&
		strings.Trim(r.URL.Path, "/") == f.bucket {
		f.list(w, r.URL.Query().Get("prefix"))
		return
	}

	prefix := "/" + f.bucket + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, prefix)

	f.mutex.Lock()
	defer f.mutex.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.objects[key] = body
		w.Header().Set("ETag", `"fake-etag"`)
		w.WriteHeader(http.StatusOK)

	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, noSuchKeyBody)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)

	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// list answers a ListObjectsV2 request in a single page.
func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	f.mutex.Lock()
	keys := []string{}
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	f.mutex.Unlock()
	sort.Strings(keys)

	body := &strings.Builder{}
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(body, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount>", f.bucket, escapeXML(prefix), len(keys))
	body.WriteString("<MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>")
	for _, key := range keys {
		fmt.Fprintf(body, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", escapeXML(key), len(f.objects[key]))
	}
	body.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body.String())
}

func escapeXML(text string) string {
	escaped := &strings.Builder{}
	_ = xml.EscapeText(escaped, []byte(text))
	return escaped.String()
}

func (f *fakeS3) has(key string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	_, ok := f.objects[key]
	return ok
}
