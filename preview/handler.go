// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package preview

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/textproto"
	"strconv"
)

type client struct {
	refresh chan struct{}
	done    chan struct{}
}

// ServeHTTP implements http.Handler.
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	f := d.format
	if v := q.Get("format"); v != "" {
		var err error
		if f, err = ParseFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if q.Get("stream") != "1" {
		b, err := d.encoded(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", f.mimeType())
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodGet {
			_, _ = w.Write(b)
		}
		return
	}
	d.stream(w, r, f)
}

func (d *Display) stream(w http.ResponseWriter, r *http.Request, f Format) {
	pw := newPartWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": pw.boundary,
	}))
	w.Header().Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		return
	}

	c := &client{
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", f.mimeType())
	for {
		b, err := d.encoded(f)
		if err != nil {
			return
		}
		// A failed write means the client went away.
		if err := pw.writePart(h, b); err != nil {
			return
		}
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// partWriter writes an unbounded multipart body, one flushed part at a time.
// mime/multipart.Writer only terminates a part when the next one starts.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
}

func newPartWriter(w io.Writer) *partWriter {
	var b [30]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return &partWriter{w: w, boundary: fmt.Sprintf("%x", b[:])}
}

func (p *partWriter) writePart(h textproto.MIMEHeader, body []byte) error {
	h.Set("Content-Length", strconv.Itoa(len(body)))
	var buf bytes.Buffer
	if !p.started {
		fmt.Fprintf(&buf, "--%s\r\n", p.boundary)
		p.started = true
	}
	for k, vs := range h {
		for _, v := range vs {
			fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
		}
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", p.boundary)
	_, err := buf.WriteTo(p.w)
	return err
}
